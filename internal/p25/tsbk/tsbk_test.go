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

package tsbk

import (
	"testing"

	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, c *Codec, in TSBK) TSBK {
	t.Helper()
	fec := c.EncodeFEC(in)
	require.Len(t, fec, 25)
	out, err := c.DecodeFEC(fec)
	require.NoError(t, err)
	return out
}

func TestVoiceGrantRoundTrip(t *testing.T) {
	c := NewCodec(false)
	in := TSBK{
		LCO: p25const.TSBKIOSPGrpVch, MFID: p25const.MFIDStandard, Opcode: p25const.TSBKIOSPGrpVch,
		LastBlock: true, Emergency: true, Priority: 3, ChannelID: 1, ChannelNo: 42,
		DstID: 101, SrcID: 202,
	}
	out := roundTrip(t, c, in)
	assert.Equal(t, in.Emergency, out.Emergency)
	assert.Equal(t, in.Priority, out.Priority)
	assert.Equal(t, in.ChannelID, out.ChannelID)
	assert.Equal(t, in.ChannelNo, out.ChannelNo)
	assert.Equal(t, in.DstID, out.DstID)
	assert.Equal(t, in.SrcID, out.SrcID)
}

func TestRegistrationRoundTrip(t *testing.T) {
	c := NewCodec(false)
	in := TSBK{LCO: p25const.TSBKIOSPGrpAff, MFID: p25const.MFIDStandard, Opcode: p25const.TSBKIOSPGrpAff,
		SrcID: 555, DstID: 777, Reason: 0}
	out := roundTrip(t, c, in)
	assert.Equal(t, in.SrcID, out.SrcID)
	assert.Equal(t, in.DstID, out.DstID)
}

func TestSiteBroadcastRoundTrip(t *testing.T) {
	c := NewCodec(false)
	in := TSBK{LCO: p25const.TSBKOSPRFSSStsBcast, MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPRFSSStsBcast,
		Site: SiteFields{NetID: 0xABCDE, SysID: 0x123, RFSSID: 4, SiteID: 9, ChannelID: 2, ChannelNo: 555}}
	out := roundTrip(t, c, in)
	assert.Equal(t, in.Site.NetID, out.Site.NetID)
	assert.Equal(t, in.Site.SysID, out.Site.SysID)
	assert.Equal(t, in.Site.RFSSID, out.Site.RFSSID)
	assert.Equal(t, in.Site.SiteID, out.Site.SiteID)
	assert.Equal(t, in.Site.ChannelID, out.Site.ChannelID)
	assert.Equal(t, in.Site.ChannelNo, out.Site.ChannelNo)
}

func TestAckRspSwapHack(t *testing.T) {
	c := NewCodec(false)
	AckRspSwapHack = true
	defer func() { AckRspSwapHack = false }()

	in := TSBK{LCO: p25const.TSBKIOSPAckRsp, MFID: p25const.MFIDStandard, Opcode: p25const.TSBKIOSPAckRsp,
		ServiceType: 0x00, SrcID: 11, DstID: 22}
	out := roundTrip(t, c, in)
	// AIV clear and dstId nonzero: src/dst are swapped on encode then
	// swapped back on decode, so the round trip still nets out equal.
	assert.Equal(t, in.SrcID, out.SrcID)
	assert.Equal(t, in.DstID, out.DstID)
}

func TestMotorolaOpcodeRemapRoundTrip(t *testing.T) {
	c := NewCodec(false)
	in := TSBK{LCO: p25const.TSBKOSPMotGrgVchGrant, MFID: p25const.MFIDMotorola, Opcode: p25const.TSBKOSPMotGrgVchGrant,
		DstID: 0x1234, SrcID: 0x5678, ChannelID: 3, ChannelNo: 99}
	out := roundTrip(t, c, in)
	assert.Equal(t, in.DstID, out.DstID)
	assert.Equal(t, in.SrcID, out.SrcID)
	assert.Equal(t, in.ChannelID, out.ChannelID)
	assert.Equal(t, in.ChannelNo, out.ChannelNo)
	assert.Equal(t, byte(p25const.MFIDMotorola), out.MFID)
}

func TestUnknownOpcodePassesThroughRaw(t *testing.T) {
	c := NewCodec(false)
	in := TSBK{LCO: 0x3F, MFID: 0x7F, Opcode: 0x3F, LastBlock: true}
	fec := c.EncodeFEC(in)
	out, err := c.DecodeFEC(fec)
	require.NoError(t, err)
	assert.Equal(t, in.LCO, out.LCO)
	assert.Equal(t, in.MFID, out.MFID)
}

func TestDecodeFECWarnCRCTolerance(t *testing.T) {
	// A block with an all-zero CRC field ("no CRC defined", spec.md §8)
	// must decode successfully when warnCRC is set, and fail otherwise.
	r := rawBlock{lco: p25const.TSBKIOSPGrpVch, mfid: p25const.MFIDStandard}
	block12 := r.encodeRaw()
	block12[10], block12[11] = 0, 0
	fec := edac.EncodeHalfRate(block12)

	tolerant := NewCodec(true)
	_, err := tolerant.DecodeFEC(fec)
	assert.NoError(t, err)

	strict := NewCodec(false)
	_, err = strict.DecodeFEC(fec)
	assert.ErrorIs(t, err, ErrCrcFail)
}
