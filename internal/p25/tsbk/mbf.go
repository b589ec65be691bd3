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

package tsbk

import "github.com/dvmproject/p25core/internal/p25/bits"

// AssembleMBF packs up to three TSBKs into one multi-block frame (MBF):
// each block is Trellis 1/2 encoded to 25 bytes, concatenated, and
// written into the returned frame from bit 0, skipping status positions,
// with the status-symbol plane then applied over the first 720 bits. No
// region before bit 114 is reserved for sync/NID. The caller is responsible for
// marking LastBlock on the final TSBK before calling; AssembleMBF does
// not mutate the blocks passed in.
func AssembleMBF(c *Codec, blocks []TSBK) []byte {
	if len(blocks) == 0 || len(blocks) > 3 {
		return nil
	}

	raw := make([]byte, 0, len(blocks)*25)
	for _, b := range blocks {
		raw = append(raw, c.EncodeFEC(b)...)
	}

	frame := make([]byte, 720/8+1)
	bits.EncodeLength(raw, frame, len(raw)*8)
	bits.AddStatusBits(frame, 720, true, false)
	return frame
}
