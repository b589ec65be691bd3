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

package tdulc

import (
	"testing"

	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupVoiceRoundTrip(t *testing.T) {
	lc := LC{Opcode: p25const.LCGroup, Emergency: true, DstID: 1001, SrcID: 2002}
	frame := Encode(lc)
	require.Len(t, frame, p25const.TDULCFECLengthBytes)

	out, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, lc.Opcode, out.Opcode)
	assert.Equal(t, lc.Emergency, out.Emergency)
	assert.Equal(t, lc.DstID, out.DstID)
	assert.Equal(t, lc.SrcID, out.SrcID)
}

func TestCallTermRoundTrip(t *testing.T) {
	lc := LC{Opcode: p25const.LCCallTerm, DstID: 333, SrcID: 444}
	out, err := Decode(Encode(lc))
	require.NoError(t, err)
	assert.Equal(t, lc.DstID, out.DstID)
	assert.Equal(t, lc.SrcID, out.SrcID)
}

func TestRFSSStatusBroadcastRoundTrip(t *testing.T) {
	lc := LC{
		Opcode: p25const.LCRFSSStsBcast, NetID: 0xABCDE, SysID: 0x123,
		RFSSID: 4, SiteID: 9, ChannelID: 1, ChannelNo: 321,
	}
	out, err := Decode(Encode(lc))
	require.NoError(t, err)
	assert.Equal(t, lc.NetID, out.NetID)
	assert.Equal(t, lc.SysID, out.SysID)
	assert.Equal(t, lc.RFSSID, out.RFSSID)
	assert.Equal(t, lc.SiteID, out.SiteID)
	assert.Equal(t, lc.ChannelID, out.ChannelID)
	assert.Equal(t, lc.ChannelNo, out.ChannelNo)
}

func TestDecodeShortFrame(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.ErrorIs(t, err, ErrShortFrame)
}
