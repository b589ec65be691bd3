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

// Package tsbk implements the Trunking Signalling Block codec: decode/encode
// of ISP/OSP opcodes, single-block and three-block multi-block-frame (MBF)
// assembly. Grounded on original_source/p25/lc/TSBK.cpp and
// P25Defines.h's TSBK opcode constants; per-opcode dispatch pattern follows
// the teacher's servers/ipsc/translator.go burst-type switch.
package tsbk

import (
	"errors"
	"log/slog"

	"github.com/dvmproject/p25core/internal/p25/edac"
)

// ErrCrcFail indicates a TSBK block failed CRC-CCITT-16 validation.
var ErrCrcFail = errors.New("tsbk: crc check failed")

// ErrUnknownOpcode indicates no variant decoder recognizes (MFID, LCO).
var ErrUnknownOpcode = errors.New("tsbk: unknown opcode")

// rawBlock is the 12-byte on-air TSBK block before opcode-specific
// interpretation: {LCO:6, lastBlock:1, protected:1}:1byte, MFID:1byte,
// payload:8 bytes, CRC-CCITT-16:2 bytes.
type rawBlock struct {
	lco        byte
	lastBlock  bool
	protected  bool
	mfid       byte
	payload    [8]byte
	crc        uint16
	crcPresent bool
}

func decodeRaw(block12 []byte) rawBlock {
	var r rawBlock
	b0 := block12[0]
	r.lastBlock = b0&0x80 != 0
	r.protected = b0&0x40 != 0
	r.lco = b0 & 0x3F
	r.mfid = block12[1]
	copy(r.payload[:], block12[2:10])
	r.crc = uint16(block12[10])<<8 | uint16(block12[11])
	return r
}

func (r rawBlock) encodeRaw() []byte {
	out := make([]byte, 12)
	b0 := r.lco & 0x3F
	if r.lastBlock {
		b0 |= 0x80
	}
	if r.protected {
		b0 |= 0x40
	}
	out[0] = b0
	out[1] = r.mfid
	copy(out[2:10], r.payload[:])
	crc := edac.CRC16(out[:10])
	out[10] = byte(crc >> 8)
	out[11] = byte(crc)
	return out
}

// decodeFEC performs Trellis 1/2 decode of a 25-byte FEC frame into a
// raw 12-byte TSBK block and verifies its CRC. Without warnCRC a CRC
// mismatch returns ErrCrcFail. With warnCRC the block is accepted anyway:
// silently when the CRC field is zero ("no CRC defined"), otherwise after
// logging a warning.
func decodeFEC(fec25 []byte, warnCRC bool) (rawBlock, error) {
	block12 := edac.DecodeHalfRate(fec25)
	r := decodeRaw(block12)
	computed := edac.CRC16(block12[:10])
	if computed != r.crc {
		if !warnCRC {
			return r, ErrCrcFail
		}
		if !edac.CRC16Zero(r.crc) {
			slog.Warn("tsbk: crc check failed, continuing", "lco", r.lco, "mfid", r.mfid)
		}
	}
	return r, nil
}

func encodeFEC(r rawBlock) []byte {
	block12 := r.encodeRaw()
	return edac.EncodeHalfRate(block12)
}
