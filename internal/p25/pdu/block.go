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

package pdu

import (
	"encoding/binary"

	"github.com/dvmproject/p25core/internal/p25/edac"
)

// Unconfirmed data blocks carry a 12-byte payload, Trellis 1/2 encoded
// straight into a 25-byte FEC frame (no per-block header).
const UnconfirmedPayloadLen = 12

// Confirmed data blocks carry a 4-byte serial/CRC header (Ns:4 bits,
// FSN:4 bits, CRC-CCITT-16) followed by a 14-byte payload, for an
// 18-byte block Trellis 3/4 encoded into a 25-byte FEC frame.
const ConfirmedPayloadLen = 14

// ConfirmedBlock is a decoded confirmed data block.
type ConfirmedBlock struct {
	Ns      byte
	FSN     byte
	Payload []byte
}

// DecodeUnconfirmedFEC Trellis-decodes a 25-byte FEC frame into its
// 12-byte unconfirmed payload.
func DecodeUnconfirmedFEC(fec25 []byte) []byte {
	return edac.DecodeHalfRate(fec25)
}

// EncodeUnconfirmedFEC Trellis-encodes a 12-byte unconfirmed payload.
func EncodeUnconfirmedFEC(payload []byte) []byte {
	buf := make([]byte, UnconfirmedPayloadLen)
	copy(buf, payload)
	return edac.EncodeHalfRate(buf)
}

// DecodeConfirmedFEC Trellis-decodes a 25-byte FEC frame into a
// ConfirmedBlock, validating the block's own CRC-CCITT-16.
func DecodeConfirmedFEC(fec25 []byte) (ConfirmedBlock, error) {
	raw := edac.DecodeThreeQuarterRate(fec25)
	var b ConfirmedBlock
	b.Ns = raw[0] >> 4
	b.FSN = raw[0] & 0x0F
	crc := binary.BigEndian.Uint16(raw[1:3])
	payload := raw[4:]
	if edac.CRC16(payload) != crc {
		return b, ErrCrcFail
	}
	b.Payload = append([]byte(nil), payload...)
	return b, nil
}

// EncodeConfirmedFEC Trellis-encodes a confirmed data block.
func EncodeConfirmedFEC(b ConfirmedBlock) []byte {
	raw := make([]byte, ConfirmedPayloadLen+4)
	raw[0] = b.Ns<<4 | (b.FSN & 0x0F)
	payload := make([]byte, ConfirmedPayloadLen)
	copy(payload, b.Payload)
	crc := edac.CRC16(payload)
	binary.BigEndian.PutUint16(raw[1:3], crc)
	copy(raw[4:], payload)
	return edac.EncodeThreeQuarterRate(raw)
}
