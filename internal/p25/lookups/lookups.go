// SPDX-License-Identifier: AGPL-3.0-or-later
// DMRHub - Run a DMR network server in a single binary
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/DMRHub>

// Package lookups implements the radio-ID ACL and talkgroup-rules
// read-through cache consulted by the trunking opcode handler's
// VALID_SRCID/VALID_DSTID/VALID_TGID gates (spec.md §4.7). The on-disk
// CSV/YAML file *formats* described in spec.md §6 are an explicit
// Non-goal owned by an external loader; this package only owns the
// in-memory (optionally gorm/sqlite-persisted) cache those pre-parsed
// entries land in, following the teacher's internal/repeaterdb and
// internal/userdb read-through cache pattern (gorm model + in-memory
// map, reloadable without losing live edits).
package lookups

import (
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite opens a gorm/sqlite database at path (the teacher's
// internal/db.MakeDB's sqlite.Open/gorm.Open pair, trimmed to the single
// driver this module persists lookups through). An empty path opens a
// private in-memory database, matching the teacher's TEST-mode branch.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("lookups: failed to open sqlite database: %w", err)
	}
	return db, nil
}

// RadioEntry is one pre-parsed radio-ID ACL record (spec.md §6 "Radio-ID
// table file": `id,enabled[,alias]`).
type RadioEntry struct {
	ID      uint32 `gorm:"primaryKey"`
	Enabled bool
	Alias   string
}

// RadioTable caches the radio-ID ACL, guarded by one mutex per spec.md
// §5. Reloading via Load preserves any entries toggled live since the
// last load that the new snapshot doesn't explicitly override — this is
// the "keeps any live edits (toggleEntry) on round-trip" contract named
// in spec.md §6.
type RadioTable struct {
	mu      sync.RWMutex
	entries map[uint32]RadioEntry
	toggled map[uint32]bool
	db      *gorm.DB
}

// NewRadioTable returns an empty RadioTable, optionally backed by db for
// persistence (nil disables persistence).
func NewRadioTable(db *gorm.DB) *RadioTable {
	t := &RadioTable{entries: make(map[uint32]RadioEntry), toggled: make(map[uint32]bool), db: db}
	if db != nil {
		_ = db.AutoMigrate(&RadioEntry{})
	}
	return t
}

// Load replaces the table's contents with entries, re-applying any
// live ToggleEntry overrides recorded since the last Load.
func (t *RadioTable) Load(entries []RadioEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make(map[uint32]RadioEntry, len(entries))
	for _, e := range entries {
		if override, ok := t.toggled[e.ID]; ok {
			e.Enabled = override
		}
		next[e.ID] = e
	}
	t.entries = next
	if t.db != nil {
		for _, e := range next {
			t.db.Save(&e)
		}
	}
}

// ToggleEntry flips id's enabled bit, if present, and records the
// override so it survives the next Load.
func (t *RadioTable) ToggleEntry(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	e.Enabled = !e.Enabled
	t.entries[id] = e
	t.toggled[id] = e.Enabled
	if t.db != nil {
		t.db.Save(&e)
	}
	return true
}

// Allowed reports whether id is a known, enabled radio (VALID_SRCID /
// VALID_DSTID gate, spec.md §4.7).
func (t *RadioTable) Allowed(id uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return ok && e.Enabled
}

// TalkgroupRule is one pre-parsed talkgroup-rules entry (spec.md §6
// "Talkgroup-rules file").
type TalkgroupRule struct {
	TGID       uint32 `gorm:"primaryKey"`
	Name       string
	Active     bool
	Affiliated bool
	Parrot     bool
	Inclusion  []uint32 `gorm:"-"`
	Exclusion  []uint32 `gorm:"-"`
	Always     []uint32 `gorm:"-"`
	Preferred  []uint32 `gorm:"-"`
}

// TalkgroupTable caches talkgroup ACL/rewrite rules.
type TalkgroupTable struct {
	mu    sync.RWMutex
	rules map[uint32]TalkgroupRule
	db    *gorm.DB
}

// NewTalkgroupTable returns an empty TalkgroupTable, optionally backed by
// db for persistence.
func NewTalkgroupTable(db *gorm.DB) *TalkgroupTable {
	t := &TalkgroupTable{rules: make(map[uint32]TalkgroupRule), db: db}
	if db != nil {
		_ = db.AutoMigrate(&TalkgroupRule{})
	}
	return t
}

// Load replaces the table's contents with rules.
func (t *TalkgroupTable) Load(rules []TalkgroupRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make(map[uint32]TalkgroupRule, len(rules))
	for _, r := range rules {
		next[r.TGID] = r
	}
	t.rules = next
	if t.db != nil {
		for _, r := range next {
			t.db.Save(&r)
		}
	}
}

// Allowed reports whether tgid is active (VALID_TGID gate, spec.md §4.7).
func (t *TalkgroupTable) Allowed(tgid uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rules[tgid]
	return ok && r.Active
}

// Rule returns the full rule record for tgid, if present.
func (t *TalkgroupTable) Rule(tgid uint32) (TalkgroupRule, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rules[tgid]
	return r, ok
}

// RequiresAffiliation reports whether tgid's rule demands prior group
// affiliation (VERIFY_SRCID_AFF gate).
func (t *TalkgroupTable) RequiresAffiliation(tgid uint32) bool {
	r, ok := t.Rule(tgid)
	return ok && r.Affiliated
}

// String implements fmt.Stringer for debug logging.
func (r TalkgroupRule) String() string {
	return fmt.Sprintf("talkgroup %d (%s) active=%v", r.TGID, r.Name, r.Active)
}
