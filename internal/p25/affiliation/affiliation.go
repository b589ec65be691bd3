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

// Package affiliation holds the trunked-site shared state tables: voice
// channel grants, unit registration, group affiliation, and adjacent-site
// (including SCCB) aging. Grounded on the teacher's
// internal/dmr/hub/hub.go (xsync.Map concurrent tables, one mutex per
// table) and internal/dmr/calltracker/call_tracker.go (per-call
// bookkeeping with expiry). Table state is advanced by an external
// Tick(now) call from the control-channel clock (spec.md §5), rather than
// per-entry timers, to keep every table mutation on the single
// cooperative event loop.
package affiliation

import (
	"sync"
	"time"

	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/dvmproject/p25core/internal/p25/site"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/puzpuzpuz/xsync/v4"
)

// grantEntry is one active voice-channel grant.
type grantEntry struct {
	channelNo uint32
	expiresAt time.Time
}

// adjEntry is one adjacent-site/SCCB aging record.
type adjEntry struct {
	data      site.Data
	hash      uint64
	updateCnt int
	failed    bool
}

// Table holds every shared table for one trunked site.
type Table struct {
	grants   *xsync.Map[uint32, *grantEntry] // dstId -> grant
	unitReg  *xsync.Map[uint32, struct{}]    // srcId -> registered
	groupAff *xsync.Map[uint32, uint32]      // srcId -> dstGroupId

	poolMu sync.Mutex
	pool   []uint32 // ordered free voice channels

	adjSites *xsync.Map[uint32, *adjEntry] // siteId -> entry
	sccb     *xsync.Map[uint32, *adjEntry] // rfssId -> entry

	now func() time.Time
}

// NewTable returns an empty Table with the given ordered voice channel
// pool.
func NewTable(voiceChannels []uint32) *Table {
	pool := make([]uint32, len(voiceChannels))
	copy(pool, voiceChannels)
	return &Table{
		grants:   xsync.NewMap[uint32, *grantEntry](),
		unitReg:  xsync.NewMap[uint32, struct{}](),
		groupAff: xsync.NewMap[uint32, uint32](),
		pool:     pool,
		adjSites: xsync.NewMap[uint32, *adjEntry](),
		sccb:     xsync.NewMap[uint32, *adjEntry](),
		now:      time.Now,
	}
}

// Grant assigns (or refreshes) a voice channel for dstId. If dstId
// already holds a grant, its timer is restarted and the same channel is
// returned with true (PTT_COLLIDE is the caller's concern, not this
// table's). Otherwise it pops a channel from the pool and returns it with
// true, or (0, false) if the pool is exhausted (CHN_RESOURCE_NOT_AVAIL).
func (t *Table) Grant(dstId uint32) (uint32, bool) {
	if g, ok := t.grants.Load(dstId); ok {
		g.expiresAt = t.now().Add(p25const.GrantTimerTimeoutSeconds * time.Second)
		return g.channelNo, true
	}

	t.poolMu.Lock()
	if len(t.pool) == 0 {
		t.poolMu.Unlock()
		return 0, false
	}
	ch := t.pool[0]
	t.pool = t.pool[1:]
	t.poolMu.Unlock()

	t.grants.Store(dstId, &grantEntry{
		channelNo: ch,
		expiresAt: t.now().Add(p25const.GrantTimerTimeoutSeconds * time.Second),
	})
	return ch, true
}

// Release returns dstId's grant (if any) to the free channel pool.
func (t *Table) Release(dstId uint32) {
	g, ok := t.grants.LoadAndDelete(dstId)
	if !ok {
		return
	}
	t.poolMu.Lock()
	t.pool = append(t.pool, g.channelNo)
	t.poolMu.Unlock()
}

// GrantCount returns the number of currently active grants (invariant:
// never exceeds the pool's original size, spec.md §8).
func (t *Table) GrantCount() int {
	n := 0
	t.grants.Range(func(uint32, *grantEntry) bool {
		n++
		return true
	})
	return n
}

// TickGrants releases any grant whose timer has lapsed as of now and
// returns the released dstIds, for the caller to notify termination.
func (t *Table) TickGrants(now time.Time) []uint32 {
	var expired []uint32
	t.grants.Range(func(dstId uint32, g *grantEntry) bool {
		if !now.Before(g.expiresAt) {
			expired = append(expired, dstId)
		}
		return true
	})
	for _, dstId := range expired {
		t.Release(dstId)
	}
	return expired
}

// RegisterUnit marks srcId as registered (ISP_LOC_REG_REQ/IOSP_U_REG).
func (t *Table) RegisterUnit(srcId uint32) { t.unitReg.Store(srcId, struct{}{}) }

// DeregisterUnit removes srcId's registration and any group affiliation.
func (t *Table) DeregisterUnit(srcId uint32) {
	t.unitReg.Delete(srcId)
	t.groupAff.Delete(srcId)
}

// IsRegistered reports whether srcId is currently registered.
func (t *Table) IsRegistered(srcId uint32) bool {
	_, ok := t.unitReg.Load(srcId)
	return ok
}

// Affiliate records srcId's affiliation with dstGroupId (IOSP_GRP_AFF).
func (t *Table) Affiliate(srcId, dstGroupId uint32) { t.groupAff.Store(srcId, dstGroupId) }

// AffiliatedGroup returns the group srcId is currently affiliated with.
func (t *Table) AffiliatedGroup(srcId uint32) (uint32, bool) {
	return t.groupAff.Load(srcId)
}

func hashSite(d site.Data) uint64 {
	h, err := hashstructure.Hash(d, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// UpdateAdjSite records (or refreshes) an adjacent-site broadcast. A
// repeated, unchanged broadcast (same hashstructure hash as what's on
// file) only clears a prior failed mark without resetting the aging
// counter; only data that actually differs from what is on file resets
// updateCnt to AdjSiteUpdateCnt, per the hashstructure-based
// change-detection named in SPEC_FULL.md's DOMAIN STACK section.
func (t *Table) UpdateAdjSite(siteId uint32, d site.Data) {
	h := hashSite(d)
	if existing, ok := t.adjSites.Load(siteId); ok && existing.hash == h {
		existing.failed = false
		return
	}
	t.adjSites.Store(siteId, &adjEntry{data: d, hash: h, updateCnt: p25const.AdjSiteUpdateCnt})
}

// TickAdjSites decrements every adjacent-site entry's update counter by
// one (called roughly every AdjSiteTimerTimeoutSeconds by the control
// clock) and marks entries that reach zero as failed, returning the list
// of siteIds that transitioned to failed this tick.
func (t *Table) TickAdjSites() []uint32 {
	var failed []uint32
	t.adjSites.Range(func(siteId uint32, e *adjEntry) bool {
		if e.failed {
			return true
		}
		e.updateCnt--
		if e.updateCnt <= 0 {
			e.failed = true
			failed = append(failed, siteId)
		}
		return true
	})
	return failed
}

// AdjSite returns the current data and failed status for siteId.
func (t *Table) AdjSite(siteId uint32) (site.Data, bool, bool) {
	e, ok := t.adjSites.Load(siteId)
	if !ok {
		return site.Data{}, false, false
	}
	return e.data, e.failed, true
}

// UpdateSCCB and TickSCCB mirror the adjacent-site aging rules for SCCB
// (secondary control channel broadcast) entries, keyed by RFSS ID.
func (t *Table) UpdateSCCB(rfssId uint32, d site.Data) {
	h := hashSite(d)
	if existing, ok := t.sccb.Load(rfssId); ok && existing.hash == h {
		existing.failed = false
		return
	}
	t.sccb.Store(rfssId, &adjEntry{data: d, hash: h, updateCnt: p25const.AdjSiteUpdateCnt})
}

func (t *Table) TickSCCB() []uint32 {
	var failed []uint32
	t.sccb.Range(func(rfssId uint32, e *adjEntry) bool {
		if e.failed {
			return true
		}
		e.updateCnt--
		if e.updateCnt <= 0 {
			e.failed = true
			failed = append(failed, rfssId)
		}
		return true
	})
	return failed
}

// AnySCCB reports whether any SCCB entries are on file (control scheduler
// only emits OSP_SCCB_EXP when this is true, spec.md §4.6).
func (t *Table) AnySCCB() bool {
	any := false
	t.sccb.Range(func(uint32, *adjEntry) bool {
		any = true
		return false
	})
	return any
}

// AnyAdjSites reports whether any adjacent-site entries are on file.
func (t *Table) AnyAdjSites() bool {
	any := false
	t.adjSites.Range(func(uint32, *adjEntry) bool {
		any = true
		return false
	})
	return any
}

// GrantSnapshot is one active grant, as enumerated by Grants for the
// control-channel scheduler's OSP_GRP_VCH_GRANT_UPD rotation (spec.md
// §4.6).
type GrantSnapshot struct {
	DstID     uint32
	ChannelNo uint32
}

// Grants returns a snapshot of every currently active grant.
func (t *Table) Grants() []GrantSnapshot {
	var out []GrantSnapshot
	t.grants.Range(func(dstId uint32, g *grantEntry) bool {
		out = append(out, GrantSnapshot{DstID: dstId, ChannelNo: g.channelNo})
		return true
	})
	return out
}

// AdjSiteSnapshot is one adjacent-site or SCCB entry as enumerated for
// broadcast.
type AdjSiteSnapshot struct {
	SiteID uint32
	Data   site.Data
	Failed bool
}

// AdjSites returns every adjacent-site entry on file, failed or not.
func (t *Table) AdjSites() []AdjSiteSnapshot {
	var out []AdjSiteSnapshot
	t.adjSites.Range(func(siteId uint32, e *adjEntry) bool {
		out = append(out, AdjSiteSnapshot{SiteID: siteId, Data: e.data, Failed: e.failed})
		return true
	})
	return out
}

// SCCBEntries returns every SCCB entry on file, keyed by RFSS ID.
func (t *Table) SCCBEntries() []AdjSiteSnapshot {
	var out []AdjSiteSnapshot
	t.sccb.Range(func(rfssId uint32, e *adjEntry) bool {
		out = append(out, AdjSiteSnapshot{SiteID: rfssId, Data: e.data, Failed: e.failed})
		return true
	})
	return out
}
