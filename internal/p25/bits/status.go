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

// Status symbol values, 2-bit dibits carried in the SS0/SS1 positions.
const (
	StatusUnknown = 0 // (1,0)
	StatusBusy    = 1 // (0,1)
	StatusIdle    = 2 // (0,0) repeated as the "idle" pattern in this engine
)

func statusBits(status int) (bool, bool) {
	switch status {
	case StatusBusy:
		return false, true
	case StatusIdle:
		return false, false
	default: // StatusUnknown
		return true, false
	}
}

// SetStatusBits writes a single status symbol pair at bit position pos.
func SetStatusBits(frame []byte, pos int, b1, b2 bool) {
	writeBit(frame, pos, b1)
	writeBit(frame, pos+1, b2)
}

// AddStatusBits writes a status symbol pair at every status position in
// the first length bits of frame. When busy is true, every second pair
// (starting with the second) is "busy"; every other pair is "unknown" if
// unknown is true, or "idle" otherwise.
func AddStatusBits(frame []byte, length int, busy bool, unknown bool) {
	pos := SS0Start
	toggle := false
	for pos+1 < length {
		if toggle && busy {
			b1, b2 := statusBits(StatusBusy)
			SetStatusBits(frame, pos, b1, b2)
		} else if unknown {
			b1, b2 := statusBits(StatusUnknown)
			SetStatusBits(frame, pos, b1, b2)
		} else {
			b1, b2 := statusBits(StatusIdle)
			SetStatusBits(frame, pos, b1, b2)
		}
		toggle = !toggle
		pos += SSIncrement
	}
}

// SetStatusBitsStartIdle writes the idle pattern at the first status
// position only, leaving subsequent pairs untouched. Used around frame
// boundaries where only the leading symbol needs a defined value.
func SetStatusBitsStartIdle(frame []byte) {
	b1, b2 := statusBits(StatusIdle)
	SetStatusBits(frame, SS0Start, b1, b2)
}

// AddIdleStatusBits fills every status position in the first length bits
// with the idle pattern.
func AddIdleStatusBits(frame []byte, length int) {
	pos := SS0Start
	for pos+1 < length {
		b1, b2 := statusBits(StatusIdle)
		SetStatusBits(frame, pos, b1, b2)
		pos += SSIncrement
	}
}

// AddUnknownStatusBits fills every status position in the first length
// bits with the "unknown" pattern.
func AddUnknownStatusBits(frame []byte, length int) {
	pos := SS0Start
	for pos+1 < length {
		b1, b2 := statusBits(StatusUnknown)
		SetStatusBits(frame, pos, b1, b2)
		pos += SSIncrement
	}
}
