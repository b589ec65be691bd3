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

// Package nid implements the P25 Network ID codec: per-DUID BCH-protected
// patterns stamped into every on-air frame, with tolerant Hamming-distance
// matching on decode. Grounded on original_source/p25/NID.cpp.
package nid

import (
	"errors"

	"github.com/dvmproject/p25core/internal/p25/bits"
	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
)

// ErrNidMismatch is returned when no stored DUID pattern is within
// tolerance of the received bits.
var ErrNidMismatch = errors.New("nid: no DUID pattern within tolerance")

const patternBytes = 8

var allDUIDs = []p25const.DUID{
	p25const.DUIDLDU1,
	p25const.DUIDLDU2,
	p25const.DUIDPDU,
	p25const.DUIDTSDU,
	p25const.DUIDHDU,
	p25const.DUIDTDULC,
	p25const.DUIDTDU,
}

// NID holds the precomputed Rx/Tx NID patterns for a NAC.
type NID struct {
	nac      uint16
	splitNAC bool
	rxTx     map[p25const.DUID][patternBytes]byte
	tx       map[p25const.DUID][patternBytes]byte

	// digitalSquelch, when set, makes Decode rebuild patterns for
	// whatever NAC is observed on each frame rather than rejecting
	// frames from other NACs (spec.md §4.1 "special NAC values").
	digitalSquelch bool
}

// New precomputes the Rx/Tx NID pattern set for nac.
func New(nac uint16) *NID {
	n := &NID{nac: nac}
	n.rxTx = buildPatterns(nac)
	return n
}

// NewDigitalSquelch returns a NID codec that accepts any NAC on decode,
// rebuilding patterns for whatever NAC is observed in each frame.
func NewDigitalSquelch() *NID {
	n := New(0)
	n.digitalSquelch = true
	return n
}

func buildPatterns(nac uint16) map[p25const.DUID][patternBytes]byte {
	out := make(map[p25const.DUID][patternBytes]byte, len(allDUIDs))
	for _, duid := range allDUIDs {
		out[duid] = buildPattern(nac, duid)
	}
	return out
}

func buildPattern(nac uint16, duid p25const.DUID) [patternBytes]byte {
	var pattern [patternBytes]byte
	// data is 16 bits: NAC(12) ‖ DUID(4).
	data := (nac&0x0FFF)<<4 | uint16(duid)&0x0F

	parity := edac.EncodeBCH6316(data)
	packed := edac.PackBCH63(data, parity)
	// packed is a 63-bit value: data(16) ‖ parity(47). Place it
	// MSB-first into bytes 0..6; byte 7 carries the overall parity bit.
	var buf [8]byte
	for i := 0; i < 63; i++ {
		bit := (packed >> uint(62-i)) & 1
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		if bit != 0 {
			buf[byteIdx] |= 1 << uint(bitIdx)
		}
	}
	copy(pattern[:7], buf[:7])
	pattern[7] = buf[7]

	switch duid {
	case p25const.DUIDLDU1, p25const.DUIDLDU2:
		pattern[7] |= 0x01
	default:
		pattern[7] &^= 0x01
	}
	return pattern
}

// SetTxNAC installs an independent Tx pattern set for a different NAC.
// Encode then uses the Tx patterns while Decode continues to use the
// original Rx patterns (a "split NAC" site).
func (n *NID) SetTxNAC(nac uint16) {
	if nac == n.nac && n.tx == nil {
		return
	}
	n.splitNAC = true
	n.tx = buildPatterns(nac)
}

// Decode extracts the 8-byte NID at the standard bit range [48,114) from
// frame (after deinterleaving through the status-bit plane) and returns
// the matching DUID, or ErrNidMismatch if no stored pattern is within
// MaxNIDErrs-1 bit errors.
func (n *NID) Decode(frame []byte) (p25const.DUID, error) {
	var raw [patternBytes]byte
	bits.Decode(frame, raw[:], 48, 114)

	patterns := n.rxTx
	if n.digitalSquelch {
		nac := uint16(raw[0])<<4 | uint16(raw[1]>>4)
		patterns = buildPatterns(nac)
	}

	for _, duid := range allDUIDs {
		candidate := patterns[duid]
		if d := bits.Compare(raw[:], candidate[:], patternBytes); d < p25const.MaxNIDErrs {
			return duid, nil
		}
	}
	return 0, ErrNidMismatch
}

// Encode writes the precomputed pattern for duid into frame at the same
// bit range Decode reads from.
func (n *NID) Encode(frame []byte, duid p25const.DUID) {
	patterns := n.rxTx
	if n.splitNAC {
		patterns = n.tx
	}
	pattern := patterns[duid]
	bits.Encode(pattern[:], frame, 48, 114)
}

// NAC returns the NAC this codec's Rx patterns were built for.
func (n *NID) NAC() uint16 { return n.nac }
