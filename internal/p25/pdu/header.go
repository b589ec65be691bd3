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

// Package pdu implements the Packet Data Unit codec: data-header and
// per-block Trellis decode, CRC-32 payload validation, and call
// reassembly; SAP-based dispatch of a completed message is left to the
// caller. Grounded on original_source/src/host/p25/packet/Data.cpp;
// per-call state follows the teacher's servers/ipsc/translator.go
// streamState idiom.
package pdu

import (
	"encoding/binary"
	"errors"

	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
)

// ErrCrcFail indicates a data header or extended-address header failed
// CRC-CCITT-16 validation.
var ErrCrcFail = errors.New("pdu: header crc check failed")

// ErrTooManyBlocks indicates blocksToFollow exceeded the 32-block limit
// (spec.md §4.5).
var ErrTooManyBlocks = errors.New("pdu: blocksToFollow exceeds 32")

// DataHeader is the decoded 12-byte PDU data header.
type DataHeader struct {
	AckNeeded     bool
	Outbound      bool
	Synchronize   bool
	LastFragment  bool
	Format        byte // one of p25const.PDUFmt*
	SAP           byte
	MFID          byte
	BlocksToFollow byte
	PadLength     byte
	PacketLength  byte
	HeaderOffset  byte
	LLID          uint32

	// AckClass is populated when Format == PDUFmtRSP: one of
	// p25const.PDUAckClass*, carried in the top 2 bits of the same octet
	// that otherwise holds SAP. SAP itself doubles as the ack type code
	// in that case (spec.md §3 PDU Data Header; §4.5 RESPONSE dispatch
	// row), matching the reference header's response-class/response-type
	// pair without a dedicated wire field for each.
	AckClass byte

	// ExtAddr is populated when SAP == PDUSAPExtAddr: the first header's
	// LLID/MFID fields are overwritten with a second header block's
	// EXSAP and source LLID.
	ExtAddr *ExtendedAddress
}

// ExtendedAddress carries the second-header fields used for extended
// addressing (spec.md §3 PDU Data Header, EXSAP/srcLLID).
type ExtendedAddress struct {
	EXSAP   byte
	SrcLLID uint32
}

func (h DataHeader) Confirmed() bool {
	return h.Format == p25const.PDUFmtConfirmed
}

func encodeHeaderRaw(h DataHeader) []byte {
	out := make([]byte, 12)
	var b0 byte
	if h.AckNeeded {
		b0 |= 0x80
	}
	if h.Outbound {
		b0 |= 0x40
	}
	if h.Synchronize {
		b0 |= 0x20
	}
	if h.LastFragment {
		b0 |= 0x10
	}
	out[0] = b0
	out[1] = h.Format
	out[2] = (h.AckClass&0x03)<<6 | (h.SAP & 0x3F)
	out[3] = h.MFID
	out[4] = h.BlocksToFollow
	out[5] = h.PadLength
	out[6] = h.PacketLength
	out[7] = byte(h.LLID >> 16)
	out[8] = byte(h.LLID >> 8)
	out[9] = byte(h.LLID)
	crc := edac.CRC16(out[:10])
	binary.BigEndian.PutUint16(out[10:12], crc)
	return out
}

func decodeHeaderRaw(raw []byte) (DataHeader, error) {
	var h DataHeader
	b0 := raw[0]
	h.AckNeeded = b0&0x80 != 0
	h.Outbound = b0&0x40 != 0
	h.Synchronize = b0&0x20 != 0
	h.LastFragment = b0&0x10 != 0
	h.Format = raw[1]
	h.AckClass = raw[2] >> 6
	h.SAP = raw[2] & 0x3F
	h.MFID = raw[3]
	h.BlocksToFollow = raw[4]
	h.PadLength = raw[5]
	h.PacketLength = raw[6]
	h.LLID = uint32(raw[7])<<16 | uint32(raw[8])<<8 | uint32(raw[9])
	crc := binary.BigEndian.Uint16(raw[10:12])
	if edac.CRC16(raw[:10]) != crc {
		return h, ErrCrcFail
	}
	return h, nil
}

// DecodeHeaderFEC Trellis-decodes a 25-byte header FEC frame into a
// DataHeader and validates its CRC.
func DecodeHeaderFEC(fec25 []byte) (DataHeader, error) {
	raw := edac.DecodeHalfRate(fec25)
	h, err := decodeHeaderRaw(raw)
	if err != nil {
		return h, err
	}
	if h.BlocksToFollow > 32 {
		return h, ErrTooManyBlocks
	}
	return h, nil
}

// EncodeHeaderFEC Trellis-encodes h into a 25-byte FEC frame.
func EncodeHeaderFEC(h DataHeader) []byte {
	return edac.EncodeHalfRate(encodeHeaderRaw(h))
}

func encodeExtAddrRaw(ext ExtendedAddress) []byte {
	out := make([]byte, 12)
	out[3] = ext.EXSAP
	out[7] = byte(ext.SrcLLID >> 16)
	out[8] = byte(ext.SrcLLID >> 8)
	out[9] = byte(ext.SrcLLID)
	crc := edac.CRC16(out[:10])
	binary.BigEndian.PutUint16(out[10:12], crc)
	return out
}

func decodeExtAddrRaw(raw []byte) (ExtendedAddress, error) {
	var ext ExtendedAddress
	ext.EXSAP = raw[3]
	ext.SrcLLID = uint32(raw[7])<<16 | uint32(raw[8])<<8 | uint32(raw[9])
	crc := binary.BigEndian.Uint16(raw[10:12])
	if edac.CRC16(raw[:10]) != crc {
		return ext, ErrCrcFail
	}
	return ext, nil
}

// DecodeExtAddrFEC decodes the second header block used when
// h.SAP == PDUSAPExtAddr.
func DecodeExtAddrFEC(fec25 []byte) (ExtendedAddress, error) {
	raw := edac.DecodeHalfRate(fec25)
	return decodeExtAddrRaw(raw)
}

// EncodeExtAddrFEC encodes an extended-address second header block.
func EncodeExtAddrFEC(ext ExtendedAddress) []byte {
	return edac.EncodeHalfRate(encodeExtAddrRaw(ext))
}

// EncodeAckResponseFEC encodes a single-header PDU_FMT_RSP frame
// carrying ackClass/ackType for llid (spec.md §4.5 RESPONSE dispatch
// row; §7 UndeliverablePDU). A response PDU is header-only, no data
// blocks follow.
func EncodeAckResponseFEC(llid uint32, ackClass, ackType byte) []byte {
	return EncodeHeaderFEC(DataHeader{
		Format:   p25const.PDUFmtRSP,
		AckClass: ackClass,
		SAP:      ackType & 0x3F,
		LLID:     llid,
	})
}
