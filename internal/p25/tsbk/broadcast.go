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

// Site-status broadcasts (RFSS/NET/ADJ status, SCCB) share one layout:
// a 20-bit network ID, 12-bit system ID, 8-bit RFSS ID, 8-bit site ID,
// 4-bit channel identifier and 12-bit channel number — the fields a
// subscriber needs to decide whether to roam onto the announced site.

func encodeSiteBroadcast(w *payloadWriter, t TSBK) {
	w.put(uint64(t.Site.NetID), 20)
	w.put(uint64(t.Site.SysID), 12)
	w.put(uint64(t.Site.RFSSID), 8)
	w.put(uint64(t.Site.SiteID), 8)
	w.put(uint64(t.Site.ChannelID), 4)
	w.put(uint64(t.Site.ChannelNo), 12)
}

func decodeSiteBroadcast(r *payloadReader, t *TSBK) {
	t.Site.NetID = uint32(r.get(20))
	t.Site.SysID = uint32(r.get(12))
	t.Site.RFSSID = uint32(r.get(8))
	t.Site.SiteID = uint32(r.get(8))
	t.Site.ChannelID = byte(r.get(4))
	t.Site.ChannelNo = uint32(r.get(12))
}

// IDEN_UP/IDEN_UP_VU carry a channel identifier's frequency plan instead
// of a site reference.
func encodeIdenUp(w *payloadWriter, t TSBK) {
	w.put(uint64(t.Site.ChannelID), 4)
	w.put(uint64(t.Site.BaseFreqHz), 32)
	w.put(uint64(int64(t.Site.TxOffsetMHz))&mask64(9), 9)
	w.put(uint64(t.Site.SpacingHz)/125, 10) // spacing stored in 125 Hz units
}

func decodeIdenUp(r *payloadReader, t *TSBK) {
	t.Site.ChannelID = byte(r.get(4))
	t.Site.BaseFreqHz = uint32(r.get(32))
	t.Site.TxOffsetMHz = int32(r.get(9))
	t.Site.SpacingHz = uint32(r.get(10)) * 125
}

// SYNC_BCAST carries the rolling microslot counter (mod 8000, spec.md
// §4.6); it is stashed in ChannelNo since no dedicated field is needed
// elsewhere on this opcode.
func encodeSyncBcast(w *payloadWriter, t TSBK) {
	w.put(uint64(t.ChannelNo%8000), 13)
}

func decodeSyncBcast(r *payloadReader, t *TSBK) {
	t.ChannelNo = uint32(r.get(13))
}

// TIME_DATE_ANN carries a coarse announcement timestamp in
// Site.UpdateSeconds (seconds since local epoch reference).
func encodeTimeDateAnn(w *payloadWriter, t TSBK) {
	w.put(uint64(t.Site.UpdateSeconds), 32)
}

func decodeTimeDateAnn(r *payloadReader, t *TSBK) {
	t.Site.UpdateSeconds = uint32(r.get(32))
}

// SYS_SRV_BCAST carries a service-availability bitmap in ServiceType.
func encodeSysSrvBcast(w *payloadWriter, t TSBK) {
	w.put(uint64(t.ServiceType), 8)
}

func decodeSysSrvBcast(r *payloadReader, t *TSBK) {
	t.ServiceType = byte(r.get(8))
}

func registerBroadcastOpcodes() {
	for _, lco := range []byte{
		p25const.TSBKOSPRFSSStsBcast,
		p25const.TSBKOSPNetStsBcast,
		p25const.TSBKOSPAdjStsBcast,
		p25const.TSBKOSPSccb,
		p25const.TSBKOSPSccbExp,
	} {
		decoders[std(lco)] = decodeSiteBroadcast
		encoders[std(lco)] = encodeSiteBroadcast
	}

	decoders[std(p25const.TSBKOSPIdenUp)] = decodeIdenUp
	encoders[std(p25const.TSBKOSPIdenUp)] = encodeIdenUp
	decoders[std(p25const.TSBKOSPIdenUpVU)] = decodeIdenUp
	encoders[std(p25const.TSBKOSPIdenUpVU)] = encodeIdenUp

	decoders[std(p25const.TSBKOSPSyncBcast)] = decodeSyncBcast
	encoders[std(p25const.TSBKOSPSyncBcast)] = encodeSyncBcast

	decoders[std(p25const.TSBKOSPTimeDateAnn)] = decodeTimeDateAnn
	encoders[std(p25const.TSBKOSPTimeDateAnn)] = encodeTimeDateAnn

	decoders[std(p25const.TSBKOSPSysSrvBcast)] = decodeSysSrvBcast
	encoders[std(p25const.TSBKOSPSysSrvBcast)] = encodeSysSrvBcast
}
