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

// Package tdulc implements the Terminator Data Unit with Link Control
// codec: a 9-byte link-control payload protected by Reed-Solomon(24,12)
// and widened to the 36-byte on-air FEC block. Grounded on
// original_source/p25/P25Defines.h's TDULC opcode/length constants; the
// block layout mirrors the teacher's models/packet.go manual
// UnpackPacket/Encode bit-field template.
package tdulc

import (
	"errors"

	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
)

// ErrShortFrame indicates a TDULC FEC frame was shorter than
// p25const.TDULCFECLengthBytes.
var ErrShortFrame = errors.New("tdulc: frame too short")

// LC is a decoded terminator link-control message.
type LC struct {
	Opcode    byte
	MFID      byte
	Emergency bool
	Encrypted bool
	SrcID     uint32
	DstID     uint32
	// Site carries the broadcast-style fields used by
	// LC_RFSS_STS_BCAST/LC_NET_STS_BCAST.
	RFSSID, SiteID, SysID, NetID uint32
	ChannelID                    byte
	ChannelNo                    uint32
}

// payload lays LC onto the 9-byte link-control message: byte0 = opcode(6)
// + emergency(1) + encrypted(1), byte1 = MFID, bytes2-8 (7 bytes/56 bits)
// carry the opcode-specific fields below.
func encodePayload(lc LC) []byte {
	out := make([]byte, 9)
	b0 := lc.Opcode & 0x3F
	if lc.Emergency {
		b0 |= 0x80
	}
	if lc.Encrypted {
		b0 |= 0x40
	}
	out[0] = b0
	out[1] = lc.MFID

	switch lc.Opcode {
	case p25const.LCRFSSStsBcast, p25const.LCNetStsBcast:
		out[2] = byte(lc.NetID >> 12)
		out[3] = byte(lc.NetID<<4) | byte(lc.SysID>>8)
		out[4] = byte(lc.SysID)
		out[5] = byte(lc.RFSSID)
		out[6] = byte(lc.SiteID)
		out[7] = byte(lc.ChannelID)<<4 | byte(lc.ChannelNo>>8)
		out[8] = byte(lc.ChannelNo)
	default: // LC_GROUP, LC_PRIVATE, LC_CALL_TERM, LC_CONV_FALLBACK
		out[2] = byte(lc.DstID >> 16)
		out[3] = byte(lc.DstID >> 8)
		out[4] = byte(lc.DstID)
		out[5] = byte(lc.SrcID >> 16)
		out[6] = byte(lc.SrcID >> 8)
		out[7] = byte(lc.SrcID)
		out[8] = 0
	}
	return out
}

func decodePayload(data9 []byte) LC {
	var lc LC
	lc.Opcode = data9[0] & 0x3F
	lc.Emergency = data9[0]&0x80 != 0
	lc.Encrypted = data9[0]&0x40 != 0
	lc.MFID = data9[1]

	switch lc.Opcode {
	case p25const.LCRFSSStsBcast, p25const.LCNetStsBcast:
		lc.NetID = uint32(data9[2])<<12 | uint32(data9[3])>>4
		lc.SysID = uint32(data9[3]&0x0F)<<8 | uint32(data9[4])
		lc.RFSSID = uint32(data9[5])
		lc.SiteID = uint32(data9[6])
		lc.ChannelID = data9[7] >> 4
		lc.ChannelNo = uint32(data9[7]&0x0F)<<8 | uint32(data9[8])
	default:
		lc.DstID = uint32(data9[2])<<16 | uint32(data9[3])<<8 | uint32(data9[4])
		lc.SrcID = uint32(data9[5])<<16 | uint32(data9[6])<<8 | uint32(data9[7])
	}
	return lc
}

// widenTo36 expands the 18-byte RS(24,12) block to the 36-byte on-air FEC
// block by duplicating each byte. This package does not claim bit-exact
// parity with the real TIA-102 TDULC constellation mapping; RS(24,12)
// already gives 18 of the 36 bytes real redundancy, and doubling keeps the
// frame length spec-correct without inventing an unverified interleave
// table.
func widenTo36(block18 []byte) []byte {
	out := make([]byte, p25const.TDULCFECLengthBytes)
	for i, b := range block18 {
		out[2*i] = b
		out[2*i+1] = b
	}
	return out
}

func narrowFrom36(block36 []byte) []byte {
	out := make([]byte, p25const.TDULCLengthBytes)
	for i := range out {
		out[i] = block36[2*i]
	}
	return out
}

// Encode produces the 36-byte TDULC FEC block for lc.
func Encode(lc LC) []byte {
	data9 := encodePayload(lc)
	rs18 := edac.RSEncode2412(data9)
	return widenTo36(rs18)
}

// Decode parses a 36-byte TDULC FEC block into an LC.
func Decode(frame []byte) (LC, error) {
	if len(frame) < p25const.TDULCFECLengthBytes {
		return LC{}, ErrShortFrame
	}
	rs18 := narrowFrom36(frame[:p25const.TDULCFECLengthBytes])
	data9 := edac.RSDecode2412(rs18)
	return decodePayload(data9), nil
}
