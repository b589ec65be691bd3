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

package affiliation

import (
	"testing"
	"time"

	"github.com/dvmproject/p25core/internal/p25/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAndRelease(t *testing.T) {
	tbl := NewTable([]uint32{1, 2, 3})
	ch, ok := tbl.Grant(100)
	require.True(t, ok)
	assert.Equal(t, uint32(1), ch)
	assert.Equal(t, 1, tbl.GrantCount())

	// Re-grant to the same dst refreshes rather than consuming a second
	// channel.
	ch2, ok := tbl.Grant(100)
	require.True(t, ok)
	assert.Equal(t, ch, ch2)
	assert.Equal(t, 1, tbl.GrantCount())

	tbl.Release(100)
	assert.Equal(t, 0, tbl.GrantCount())
}

func TestGrantPoolExhaustion(t *testing.T) {
	tbl := NewTable([]uint32{1})
	_, ok := tbl.Grant(100)
	require.True(t, ok)
	_, ok = tbl.Grant(200)
	assert.False(t, ok)
	assert.LessOrEqual(t, tbl.GrantCount(), 1)
}

func TestTickGrantsExpiresAfterTimeout(t *testing.T) {
	tbl := NewTable([]uint32{1})
	base := time.Now()
	tbl.now = func() time.Time { return base }
	_, ok := tbl.Grant(100)
	require.True(t, ok)

	expired := tbl.TickGrants(base.Add(16 * time.Second))
	assert.Equal(t, []uint32{100}, expired)
	assert.Equal(t, 0, tbl.GrantCount())
}

func TestUnitRegistrationAndAffiliation(t *testing.T) {
	tbl := NewTable(nil)
	tbl.RegisterUnit(42)
	assert.True(t, tbl.IsRegistered(42))

	tbl.Affiliate(42, 900)
	grp, ok := tbl.AffiliatedGroup(42)
	require.True(t, ok)
	assert.Equal(t, uint32(900), grp)

	tbl.DeregisterUnit(42)
	assert.False(t, tbl.IsRegistered(42))
	_, ok = tbl.AffiliatedGroup(42)
	assert.False(t, ok)
}

func TestAdjSiteAgingFailsAfterFiveTicks(t *testing.T) {
	tbl := NewTable(nil)
	d := site.New(1, 1, 2, 3, 0, 100, 0, 0)
	tbl.UpdateAdjSite(3, d)

	for i := 0; i < 4; i++ {
		failed := tbl.TickAdjSites()
		assert.Empty(t, failed)
	}
	failed := tbl.TickAdjSites()
	assert.Equal(t, []uint32{3}, failed)

	_, isFailed, ok := tbl.AdjSite(3)
	require.True(t, ok)
	assert.True(t, isFailed)
}

func TestAdjSiteRefreshResetsCounterOnChange(t *testing.T) {
	tbl := NewTable(nil)
	d := site.New(1, 1, 2, 3, 0, 100, 0, 0)
	tbl.UpdateAdjSite(3, d)
	tbl.TickAdjSites()
	tbl.TickAdjSites()

	d2 := site.New(1, 1, 2, 3, 0, 200, 0, 0)
	tbl.UpdateAdjSite(3, d2)

	for i := 0; i < 4; i++ {
		failed := tbl.TickAdjSites()
		assert.Empty(t, failed)
	}
}

// TestAdjSiteRepeatedBroadcastDoesNotResetCounter covers the other half
// of the hashstructure-based change detection: a re-broadcast carrying
// identical site.Data does not reset the aging counter, so it still
// fails on schedule.
func TestAdjSiteRepeatedBroadcastDoesNotResetCounter(t *testing.T) {
	tbl := NewTable(nil)
	d := site.New(1, 1, 2, 3, 0, 100, 0, 0)
	tbl.UpdateAdjSite(3, d)

	for i := 0; i < 4; i++ {
		failed := tbl.TickAdjSites()
		assert.Empty(t, failed)

		tbl.UpdateAdjSite(3, d) // identical broadcast: must not rearm the counter
	}

	failed := tbl.TickAdjSites()
	assert.Equal(t, []uint32{3}, failed)
}
