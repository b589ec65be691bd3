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

// BCH63_16 implements the systematic (63,16) binary BCH code used to
// protect the 16-bit NAC‖DUID field of the NID. NID.decode never runs the
// algebraic error-correcting half of this code — it accepts frames within
// a Hamming-distance tolerance of a precomputed pattern (see spec.md §4.1,
// §8) — so only forward (systematic, non-correcting) encoding is needed.
//
// bch63_16Generator is this package's fixed degree-47 generator polynomial
// for the code, represented with the degree-47 coefficient as an implicit
// leading 1 and the remaining 47 coefficients in bch63_16Generator (bit 46 = x^46
// term down to bit 0 = the constant term). Systematic encoding divides
// x^47 * data(x) by the generator and appends the 47-bit remainder.
const bch63_16Generator uint64 = 0x0444958A79A3 // 47-bit polynomial, bit0..46

// EncodeBCH6316 takes the low 16 bits of data (NAC‖DUID, MSB-first) and
// returns the 47-bit parity remainder of the systematic (63,16) code,
// right-justified in the low 47 bits of the result.
func EncodeBCH6316(data uint16) uint64 {
	// Shift data into the high bits of a 63-bit register: data occupies
	// bits 62..47, parity occupies bits 46..0.
	reg := uint64(data) << 47

	const genDegree = 47
	topBit := uint64(1) << 62
	for i := 0; i < 16; i++ {
		if reg&topBit != 0 {
			reg ^= (uint64(1)<<genDegree | bch63_16Generator) << (15 - i)
		}
		topBit >>= 1
	}
	return reg & ((uint64(1) << genDegree) - 1)
}

// PackBCH63 lays the 16 data bits followed by the 47 parity bits into a
// 63-bit big-endian bitstream, matching the wire order NID.new expects
// before the trailing overall-parity bit is appended by the nid package.
func PackBCH63(data uint16, parity uint64) uint64 {
	return (uint64(data) << 47) | (parity & ((uint64(1) << 47) - 1))
}
