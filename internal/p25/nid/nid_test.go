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

package nid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvmproject/p25core/internal/p25/p25const"
)

func newFrame() []byte {
	return make([]byte, 216)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := New(0x293)
	for _, duid := range allDUIDs {
		frame := newFrame()
		n.Encode(frame, duid)
		got, err := n.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, duid, got)
	}
}

func TestDecodeToleratesSixBitErrors(t *testing.T) {
	n := New(0x1A2)
	frame := newFrame()
	n.Encode(frame, p25const.DUIDLDU1)

	// Flip 6 distinct bits within the NID bit range [48,114).
	flipBit(frame, 50)
	flipBit(frame, 55)
	flipBit(frame, 60)
	flipBit(frame, 80)
	flipBit(frame, 90)
	flipBit(frame, 100)

	got, err := n.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, p25const.DUIDLDU1, got)
}

func TestDecodeFailsAtSevenBitErrors(t *testing.T) {
	n := New(0x1A2)
	frame := newFrame()
	n.Encode(frame, p25const.DUIDLDU1)

	positions := []int{50, 55, 60, 65, 90, 100, 105}
	for _, p := range positions {
		flipBit(frame, p)
	}

	_, err := n.Decode(frame)
	assert.ErrorIs(t, err, ErrNidMismatch)
}

func TestSplitNAC(t *testing.T) {
	n := New(0x100)
	n.SetTxNAC(0x200)

	frame := newFrame()
	n.Encode(frame, p25const.DUIDTSDU)
	// Encoded with the Tx (0x200) patterns; decoding against the Rx
	// (0x100) patterns should still resolve to TSDU because the DUID
	// field dominates pattern selection at small Hamming distances is
	// not guaranteed in general, so instead verify against a fresh
	// NID built for the Tx NAC.
	verifier := New(0x200)
	got, err := verifier.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, p25const.DUIDTSDU, got)
}

func flipBit(data []byte, pos int) {
	byteIdx := pos / 8
	bitIdx := 7 - (pos % 8)
	data[byteIdx] ^= 1 << uint(bitIdx)
}
