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

// Voice-channel grant/request opcodes share one field layout: an 8-bit
// service-options octet, a 16-bit channel field (4-bit identifier + 12-bit
// number), a 24-bit destination, and a 16-bit source.

func encodeVoiceGrant(w *payloadWriter, t TSBK) {
	w.putBool(t.Emergency)
	w.putBool(t.Encrypted)
	w.put(uint64(t.Priority), 3)
	w.put(0, 3) // reserved
	w.put(uint64(t.ChannelID), 4)
	w.put(uint64(t.ChannelNo), 12)
	w.put(uint64(t.DstID), 24)
	w.put(uint64(t.SrcID), 16)
}

func decodeVoiceGrant(r *payloadReader, t *TSBK) {
	t.Emergency = r.getBool()
	t.Encrypted = r.getBool()
	t.Priority = byte(r.get(3))
	r.get(3)
	t.ChannelID = byte(r.get(4))
	t.ChannelNo = uint32(r.get(12))
	t.DstID = uint32(r.get(24))
	t.SrcID = uint32(r.get(16))
}

func registerVoiceGrantOpcodes() {
	for _, lco := range []byte{
		p25const.TSBKIOSPGrpVch,
		p25const.TSBKIOSPUUVch,
		p25const.TSBKIOSPUUAns,
		p25const.TSBKIOSPTeleIntDial,
		p25const.TSBKIOSPTeleIntAns,
		p25const.TSBKOSPGrpVchGrantUpd,
		p25const.TSBKOSPUUVchGrantUpd,
	} {
		decoders[std(lco)] = decodeVoiceGrant
		encoders[std(lco)] = encodeVoiceGrant
	}

	// SNDCP channel grant/announce reuse the same shape: DstID carries
	// the requesting LLID, ChannelNo the assigned data channel.
	decoders[std(p25const.TSBKOSPSNDCPChGnt)] = decodeVoiceGrant
	encoders[std(p25const.TSBKOSPSNDCPChGnt)] = encodeVoiceGrant
	decoders[std(p25const.TSBKOSPSNDCPChAnn)] = decodeVoiceGrant
	encoders[std(p25const.TSBKOSPSNDCPChAnn)] = encodeVoiceGrant
	decoders[std(p25const.TSBKISPSNDCPChReq)] = decodeVoiceGrant
	encoders[std(p25const.TSBKISPSNDCPChReq)] = encodeVoiceGrant
}
