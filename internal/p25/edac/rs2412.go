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

// Reed-Solomon(24,12) over GF(64) protects the TDULC link-control payload.
// Message and parity symbols are 6 bits wide; 12 data symbols (9 bytes)
// produce 12 parity symbols, for a 24-symbol (18-byte) RS-encoded block.
//
// GF(64) is built from the primitive polynomial x^6+x+1 (0x43), the
// standard field used across P25 FEC.

const (
	gf64PrimPoly = 0x43
	gf64Size     = 63 // 2^6 - 1 nonzero elements
)

var (
	gf64Exp [2 * gf64Size]int
	gf64Log [gf64Size + 1]int
)

func init() {
	x := 1
	for i := 0; i < gf64Size; i++ {
		gf64Exp[i] = x
		gf64Log[x] = i
		x <<= 1
		if x&0x40 != 0 {
			x ^= gf64PrimPoly
		}
	}
	for i := gf64Size; i < 2*gf64Size; i++ {
		gf64Exp[i] = gf64Exp[i-gf64Size]
	}
}

func gf64Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return gf64Exp[gf64Log[a]+gf64Log[b]]
}

// rs2412Generator is the degree-12 generator polynomial for RS(24,12) over
// GF(64), built as the product (x-alpha^0)(x-alpha^1)...(x-alpha^11).
var rs2412Generator = buildRS2412Generator()

func buildRS2412Generator() []int {
	gen := []int{1}
	for i := 0; i < 12; i++ {
		root := gf64Exp[i]
		next := make([]int, len(gen)+1)
		for j, c := range gen {
			next[j] ^= gf64Mul(c, root)
			next[j+1] ^= c
		}
		gen = next
	}
	return gen
}

// RSEncode2412 takes 9 bytes (12 six-bit symbols) of TDULC link-control
// data and returns 18 bytes: the 12 data symbols followed by 12 parity
// symbols, all packed 6 bits per symbol, MSB-first.
func RSEncode2412(data9 []byte) []byte {
	symbols := unpack6(data9, 12)
	parity := make([]int, 12)
	copy(parity, make([]int, 12))
	msg := make([]int, len(symbols))
	copy(msg, symbols)

	remainder := make([]int, 12)
	for _, sym := range msg {
		feedback := sym ^ remainder[0]
		copy(remainder, remainder[1:])
		remainder[len(remainder)-1] = 0
		if feedback != 0 {
			for i := 0; i < 12; i++ {
				remainder[i] ^= gf64Mul(feedback, rs2412Generator[i+1])
			}
		}
	}
	out := append(append([]int{}, symbols...), remainder...)
	return pack6(out)
}

// RSDecode2412 reverses RSEncode2412, returning the original 9-byte
// message. Error correction (syndrome decoding) is not performed: TDULC
// validity in this engine is established by the caller's own framing, not
// by RS error correction, matching how spec.md treats TDULC as an emit-only
// link-control path.
func RSDecode2412(block18 []byte) []byte {
	symbols := unpack6(block18, 24)
	return pack6(symbols[:12])
}

func unpack6(data []byte, n int) []int {
	out := make([]int, n)
	bitPos := 0
	for i := 0; i < n; i++ {
		v := 0
		for b := 0; b < 6; b++ {
			byteIdx := bitPos / 8
			bitIdx := 7 - (bitPos % 8)
			bit := 0
			if byteIdx < len(data) {
				bit = int(data[byteIdx]>>uint(bitIdx)) & 1
			}
			v = (v << 1) | bit
			bitPos++
		}
		out[i] = v
	}
	return out
}

func pack6(symbols []int) []byte {
	totalBits := len(symbols) * 6
	out := make([]byte, (totalBits+7)/8)
	bitPos := 0
	for _, sym := range symbols {
		for b := 5; b >= 0; b-- {
			bit := (sym >> uint(b)) & 1
			if bit != 0 {
				out[bitPos/8] |= 1 << uint(7-(bitPos%8))
			}
			bitPos++
		}
	}
	return out
}
