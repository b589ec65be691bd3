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

package edac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16RoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	crc := CRC16(data)
	assert.NotZero(t, crc)
	assert.Equal(t, crc, CRC16(data), "CRC16 must be deterministic")
}

func TestCRC16ZeroSentinel(t *testing.T) {
	assert.True(t, CRC16Zero(0))
	assert.False(t, CRC16Zero(1))
}

func TestCRC32Basic(t *testing.T) {
	a := CRC32([]byte("p25"))
	b := CRC32([]byte("p26"))
	assert.NotEqual(t, a, b)
}

func TestTrellisHalfRateRoundTrip(t *testing.T) {
	data := make([]byte, 12)
	for i := range data {
		data[i] = byte(i*37 + 11)
	}
	frame := EncodeHalfRate(data)
	require.Len(t, frame, 25)
	decoded := DecodeHalfRate(frame)
	assert.Equal(t, data, decoded)
}

func TestTrellisThreeQuarterRateRoundTrip(t *testing.T) {
	data := make([]byte, 18)
	for i := range data {
		data[i] = byte(i*53 + 7)
	}
	frame := EncodeThreeQuarterRate(data)
	require.Len(t, frame, 25)
	decoded := DecodeThreeQuarterRate(frame)
	assert.Equal(t, data, decoded)
}

func TestRS2412RoundTrip(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11}
	encoded := RSEncode2412(data)
	require.Len(t, encoded, 18)
	decoded := RSDecode2412(encoded)
	assert.Equal(t, data, decoded)
}

func TestBCH6316Deterministic(t *testing.T) {
	p1 := EncodeBCH6316(0x1234)
	p2 := EncodeBCH6316(0x1234)
	assert.Equal(t, p1, p2)
	p3 := EncodeBCH6316(0x1235)
	assert.NotEqual(t, p1, p3)
}
