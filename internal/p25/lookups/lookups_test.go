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

package lookups

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadioTableAllowedReflectsLoad(t *testing.T) {
	rt := NewRadioTable(nil)
	assert.False(t, rt.Allowed(1001))

	rt.Load([]RadioEntry{
		{ID: 1001, Enabled: true, Alias: "N0CALL"},
		{ID: 1002, Enabled: false},
	})

	assert.True(t, rt.Allowed(1001))
	assert.False(t, rt.Allowed(1002))
	assert.False(t, rt.Allowed(9999))
}

func TestRadioTableToggleEntrySurvivesReload(t *testing.T) {
	rt := NewRadioTable(nil)
	rt.Load([]RadioEntry{{ID: 1001, Enabled: true}})

	assert.True(t, rt.ToggleEntry(1001))
	assert.False(t, rt.Allowed(1001))

	// A reload with the entry still enabled=true in the source file must
	// not clobber the live toggle.
	rt.Load([]RadioEntry{{ID: 1001, Enabled: true}})
	assert.False(t, rt.Allowed(1001))
}

func TestRadioTableToggleEntryUnknownID(t *testing.T) {
	rt := NewRadioTable(nil)
	assert.False(t, rt.ToggleEntry(42))
}

func TestRadioTablePersistsAcrossInstancesViaSQLite(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)

	rt := NewRadioTable(db)
	rt.Load([]RadioEntry{{ID: 2001, Enabled: true, Alias: "N0CALL"}})
	require.True(t, rt.ToggleEntry(2001))

	var reloaded RadioEntry
	require.NoError(t, db.First(&reloaded, "id = ?", 2001).Error)
	assert.False(t, reloaded.Enabled)
	assert.Equal(t, "N0CALL", reloaded.Alias)
}

func TestTalkgroupTableAllowedAndAffiliationGate(t *testing.T) {
	tt := NewTalkgroupTable(nil)
	tt.Load([]TalkgroupRule{
		{TGID: 101, Name: "Statewide", Active: true, Affiliated: true},
		{TGID: 102, Name: "Local", Active: false},
	})

	assert.True(t, tt.Allowed(101))
	assert.False(t, tt.Allowed(102))
	assert.False(t, tt.Allowed(999))

	assert.True(t, tt.RequiresAffiliation(101))
	assert.False(t, tt.RequiresAffiliation(102))
	assert.False(t, tt.RequiresAffiliation(999))

	rule, ok := tt.Rule(101)
	assert.True(t, ok)
	assert.Equal(t, "Statewide", rule.Name)
}
