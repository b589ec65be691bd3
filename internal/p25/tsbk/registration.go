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

// Registration/affiliation/status opcodes share a simpler layout: a 4-bit
// service type, an 8-bit reason and 4 reserved bits, followed by two
// 24-bit unit/group IDs (source, then destination).

func encodeUnitExchange(w *payloadWriter, t TSBK) {
	w.put(uint64(t.ServiceType), 4)
	w.put(uint64(t.Reason), 8)
	w.put(0, 4) // reserved, keeps the octet pair byte-aligned
	w.put(uint64(t.SrcID), 24)
	w.put(uint64(t.DstID), 24)
}

func decodeUnitExchange(r *payloadReader, t *TSBK) {
	t.ServiceType = byte(r.get(4))
	t.Reason = byte(r.get(8))
	r.get(4)
	t.SrcID = uint32(r.get(24))
	t.DstID = uint32(r.get(24))
}

func registerRegistrationOpcodes() {
	for _, lco := range []byte{
		p25const.TSBKIOSPGrpAff,
		p25const.TSBKIOSPURegistr,
		p25const.TSBKIOSPStsUpdt,
		p25const.TSBKIOSPStsQ,
		p25const.TSBKIOSPMsgUpdt,
		p25const.TSBKIOSPCallAlrt,
		p25const.TSBKIOSPExtFnct,
		p25const.TSBKISPStsQRsp,
		p25const.TSBKISPCanSrvReq,
		p25const.TSBKISPEmergAlrmReq,
		p25const.TSBKISPGrpAffQRsp,
		p25const.TSBKISPUDeregReq,
		p25const.TSBKISPLocRegReq,
		p25const.TSBKISPTeleIntPSTNReq,
		p25const.TSBKOSPGrpAffQ,
		p25const.TSBKOSPLocRegRsp,
		p25const.TSBKOSPURegCmd,
		p25const.TSBKOSPUDeregAck,
	} {
		decoders[std(lco)] = decodeUnitExchange
		encoders[std(lco)] = encodeUnitExchange
	}
}
