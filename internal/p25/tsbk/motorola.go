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

// Motorola (MFID 0x90) opcodes extend group-regroup/patch-supergroup and
// the conventional-channel control-station opcodes described in
// SPEC_FULL.md's SUPPLEMENTED FEATURES section. GRG_ADD/DEL/VCH_GRANT/
// VCH_UPD share the supergroup-patch layout: a 16-bit supergroup ID, a
// 16-bit source group ID and the voice-grant channel fields.

func encodeGrgPatch(w *payloadWriter, t TSBK) {
	w.put(uint64(t.DstID)&0xFFFF, 16) // supergroup ID
	w.put(uint64(t.SrcID)&0xFFFF, 16) // patched group ID
	w.put(uint64(t.ChannelID), 4)
	w.put(uint64(t.ChannelNo), 12)
	w.put(0, 16)
}

func decodeGrgPatch(r *payloadReader, t *TSBK) {
	t.DstID = uint32(r.get(16))
	t.SrcID = uint32(r.get(16))
	t.ChannelID = byte(r.get(4))
	t.ChannelNo = uint32(r.get(12))
	r.get(16)
}

// CC_BSI announces the control channel's base station identity; PSH_CCH
// directs subscribers to a replacement control channel. Both reuse the
// generic site-broadcast shape.
func registerMotorolaOpcodes() {
	for _, lco := range []byte{
		p25const.TSBKOSPMotGrgAdd,
		p25const.TSBKOSPMotGrgDel,
		p25const.TSBKOSPMotGrgVchGrant,
		p25const.TSBKOSPMotGrgVchUpd,
	} {
		decoders[mot(lco)] = decodeGrgPatch
		encoders[mot(lco)] = encodeGrgPatch
	}

	decoders[mot(p25const.TSBKOSPMotCCBsi)] = decodeSiteBroadcast
	encoders[mot(p25const.TSBKOSPMotCCBsi)] = encodeSiteBroadcast
	decoders[mot(p25const.TSBKOSPMotPshCch)] = decodeSiteBroadcast
	encoders[mot(p25const.TSBKOSPMotPshCch)] = encodeSiteBroadcast
}
