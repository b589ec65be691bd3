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

package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClampsFields(t *testing.T) {
	d := New(0, 0x2000, 0xFF, 0xFF, 99, 0x2000, 1, 2)
	assert.Equal(t, uint32(1), d.NetID)
	assert.Equal(t, uint32(0xFFE), d.SysID)
	assert.Equal(t, uint32(0xFE), d.RFSSID)
	assert.Equal(t, uint32(0xFE), d.SiteID)
	assert.Equal(t, uint32(15), d.ChannelID)
	assert.Equal(t, uint32(0xFFF), d.ChannelNo)
}

func TestIdenTable(t *testing.T) {
	tbl := NewIdenTable()
	_, ok := tbl.Get(3)
	assert.False(t, ok)

	tbl.Set(ChannelIdentifier{ID: 3, BaseFrequency: 851006250, ChannelSpacingHz: 12500})
	got, ok := tbl.Get(3)
	assert.True(t, ok)
	assert.Equal(t, uint32(851006250+2*12500), got.Frequency(2))
	assert.Len(t, tbl.All(), 1)
}
