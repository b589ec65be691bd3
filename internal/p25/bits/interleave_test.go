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

package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := make([]byte, 30)
	for i := range src {
		src[i] = byte(i*97 + 13)
	}

	start, stop := 0, 200
	packed := make([]byte, 30)
	n := Decode(src, packed, start, stop)
	require.Greater(t, n, 0)

	out := make([]byte, 30)
	written := Encode(packed, out, start, stop)
	assert.Equal(t, n, written)

	// Non-status bits must round-trip exactly.
	redecoded := make([]byte, 30)
	n2 := Decode(out, redecoded, start, stop)
	assert.Equal(t, n, n2)
	assert.Equal(t, packed[:(n+7)/8], redecoded[:(n+7)/8])
}

func TestEncodeLength(t *testing.T) {
	packed := []byte{0xAB, 0xCD, 0xEF}
	out := make([]byte, 10)
	pos := EncodeLength(packed, out, 24)
	assert.Equal(t, 24, pos)

	redecoded := make([]byte, 3)
	n := Decode(out, redecoded, 0, pos)
	assert.Equal(t, 24, n)
	assert.Equal(t, packed, redecoded)
}

func TestCompareHammingDistance(t *testing.T) {
	a := []byte{0xFF, 0x00}
	b := []byte{0xFF, 0x00}
	assert.Equal(t, 0, Compare(a, b, 2))

	c := []byte{0xFE, 0x00}
	assert.Equal(t, 1, Compare(a, c, 2))
}

func TestAddStatusBitsDoesNotPanicOnShortFrame(t *testing.T) {
	frame := make([]byte, 18)
	assert.NotPanics(t, func() {
		AddStatusBits(frame, 18*8, true, false)
	})
}
