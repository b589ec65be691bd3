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

// Package wire carries the msgp-tagged records shipped between sibling
// core processes over the redis pubsub channel (see internal/p25/pubsub):
// a decoded TSBK, a PDU data header, and an affiliation/adjacent-site
// snapshot. Grounded on the teacher's models/packet.go, which tags its
// own wire struct for tinylib/msgp; the (de)serializers here (wire_gen.go)
// are committed rather than left to `go generate`, built against the same
// tinylib/msgp/msgp append/read helpers the generator emits calls to.
package wire

// TSBKRecord is the wire-shippable form of a decoded TSBK (see
// internal/p25/tsbk.TSBK), flattened to fixed-width fields the way
// models.Packet flattens DMR frame fields for msgp.
type TSBKRecord struct {
	Opcode    byte   `msg:"opcode"`
	MFID      byte   `msg:"mfid"`
	LCO       byte   `msg:"lco"`
	SrcID     uint32 `msg:"srcId"`
	DstID     uint32 `msg:"dstId"`
	ChannelNo uint32 `msg:"channelNo"`
	ServiceType byte `msg:"serviceType"`
	Priority  byte   `msg:"priority"`
	Reason    byte   `msg:"reason"`
}

// PDUHeaderRecord is the wire-shippable form of a PDU data header (see
// internal/p25/pdu.DataHeader).
type PDUHeaderRecord struct {
	Format         byte   `msg:"format"`
	SAP            byte   `msg:"sap"`
	MFID           byte   `msg:"mfid"`
	LLID           uint32 `msg:"llid"`
	BlocksToFollow byte   `msg:"blocksToFollow"`
	PadLength      byte   `msg:"padLength"`
	AckNeeded      bool   `msg:"ackNeeded"`
}

// AffiliationRecord is the wire-shippable form of one adjacent-site or
// SCCB entry (see internal/p25/affiliation.AdjSiteSnapshot), shipped
// over pubsub.TopicAdjSite/TopicSCCB alongside the on-air TSBK so peer
// core instances can mirror adjacent-site aging state without querying
// each other synchronously.
type AffiliationRecord struct {
	SiteID    uint32 `msg:"siteId"`
	ChannelNo uint32 `msg:"channelNo"`
	Failed    bool   `msg:"failed"`
}
