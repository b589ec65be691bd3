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

import "github.com/dvmproject/p25core/internal/p25/p25const"

// AckRspSwapHack reproduces the legacy srcId/dstId swap observed in the
// original IOSP_ACK_RSP handling when AIV is clear and dstId is nonzero
// (spec.md §9 Open Question (b)). It is isolated behind this flag rather
// than applied unconditionally; default is off.
var AckRspSwapHack = false

const ackAIVBit = 0x80 // top bit of ServiceType carries AIV in this layout

func encodeAckRsp(w *payloadWriter, t TSBK) {
	src, dst := t.SrcID, t.DstID
	if AckRspSwapHack && t.ServiceType&ackAIVBit == 0 && dst != 0 {
		src, dst = dst, src
	}
	w.put(uint64(t.ServiceType), 8)
	w.put(uint64(src), 24)
	w.put(uint64(dst), 24)
}

func decodeAckRsp(r *payloadReader, t *TSBK) {
	t.ServiceType = byte(r.get(8))
	t.SrcID = uint32(r.get(24))
	t.DstID = uint32(r.get(24))
	if AckRspSwapHack && t.ServiceType&ackAIVBit == 0 && t.DstID != 0 {
		t.SrcID, t.DstID = t.DstID, t.SrcID
	}
}

// DENY_RSP/QUE_RSP carry a reason code alongside the service being
// denied/queued and the unit/group pair involved.
func encodeDenyQueue(w *payloadWriter, t TSBK) {
	w.put(uint64(t.ServiceType), 6)
	w.put(uint64(t.Reason), 6)
	w.put(uint64(t.SrcID), 24)
	w.put(uint64(t.DstID), 24)
}

func decodeDenyQueue(r *payloadReader, t *TSBK) {
	t.ServiceType = byte(r.get(6))
	t.Reason = byte(r.get(6))
	t.SrcID = uint32(r.get(24))
	t.DstID = uint32(r.get(24))
}

func registerResponseOpcodes() {
	decoders[std(p25const.TSBKIOSPAckRsp)] = decodeAckRsp
	encoders[std(p25const.TSBKIOSPAckRsp)] = encodeAckRsp

	decoders[std(p25const.TSBKOSPDenyRsp)] = decodeDenyQueue
	encoders[std(p25const.TSBKOSPDenyRsp)] = encodeDenyQueue
	decoders[std(p25const.TSBKOSPQueRsp)] = decodeDenyQueue
	encoders[std(p25const.TSBKOSPQueRsp)] = encodeDenyQueue
}
