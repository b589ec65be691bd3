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

package wire

import "github.com/tinylib/msgp/msgp"

// MarshalMsg implements msgp.Marshaler for TSBKRecord. Written by hand in
// the shape `msgp` code generation produces (this package has no
// go:generate directive), using the same tinylib/msgp/msgp append/read
// helpers the generated code calls.
func (z TSBKRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 9)
	o = msgp.AppendString(o, "opcode")
	o = msgp.AppendByte(o, z.Opcode)
	o = msgp.AppendString(o, "mfid")
	o = msgp.AppendByte(o, z.MFID)
	o = msgp.AppendString(o, "lco")
	o = msgp.AppendByte(o, z.LCO)
	o = msgp.AppendString(o, "srcId")
	o = msgp.AppendUint32(o, z.SrcID)
	o = msgp.AppendString(o, "dstId")
	o = msgp.AppendUint32(o, z.DstID)
	o = msgp.AppendString(o, "channelNo")
	o = msgp.AppendUint32(o, z.ChannelNo)
	o = msgp.AppendString(o, "serviceType")
	o = msgp.AppendByte(o, z.ServiceType)
	o = msgp.AppendString(o, "priority")
	o = msgp.AppendByte(o, z.Priority)
	o = msgp.AppendString(o, "reason")
	o = msgp.AppendByte(o, z.Reason)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler for TSBKRecord.
func (z *TSBKRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	for i := uint32(0); i < sz; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, err
		}
		switch string(field) {
		case "opcode":
			z.Opcode, bts, err = msgp.ReadByteBytes(bts)
		case "mfid":
			z.MFID, bts, err = msgp.ReadByteBytes(bts)
		case "lco":
			z.LCO, bts, err = msgp.ReadByteBytes(bts)
		case "srcId":
			z.SrcID, bts, err = msgp.ReadUint32Bytes(bts)
		case "dstId":
			z.DstID, bts, err = msgp.ReadUint32Bytes(bts)
		case "channelNo":
			z.ChannelNo, bts, err = msgp.ReadUint32Bytes(bts)
		case "serviceType":
			z.ServiceType, bts, err = msgp.ReadByteBytes(bts)
		case "priority":
			z.Priority, bts, err = msgp.ReadByteBytes(bts)
		case "reason":
			z.Reason, bts, err = msgp.ReadByteBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

// MarshalMsg implements msgp.Marshaler for PDUHeaderRecord.
func (z PDUHeaderRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 7)
	o = msgp.AppendString(o, "format")
	o = msgp.AppendByte(o, z.Format)
	o = msgp.AppendString(o, "sap")
	o = msgp.AppendByte(o, z.SAP)
	o = msgp.AppendString(o, "mfid")
	o = msgp.AppendByte(o, z.MFID)
	o = msgp.AppendString(o, "llid")
	o = msgp.AppendUint32(o, z.LLID)
	o = msgp.AppendString(o, "blocksToFollow")
	o = msgp.AppendByte(o, z.BlocksToFollow)
	o = msgp.AppendString(o, "padLength")
	o = msgp.AppendByte(o, z.PadLength)
	o = msgp.AppendString(o, "ackNeeded")
	o = msgp.AppendBool(o, z.AckNeeded)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler for PDUHeaderRecord.
func (z *PDUHeaderRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	for i := uint32(0); i < sz; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, err
		}
		switch string(field) {
		case "format":
			z.Format, bts, err = msgp.ReadByteBytes(bts)
		case "sap":
			z.SAP, bts, err = msgp.ReadByteBytes(bts)
		case "mfid":
			z.MFID, bts, err = msgp.ReadByteBytes(bts)
		case "llid":
			z.LLID, bts, err = msgp.ReadUint32Bytes(bts)
		case "blocksToFollow":
			z.BlocksToFollow, bts, err = msgp.ReadByteBytes(bts)
		case "padLength":
			z.PadLength, bts, err = msgp.ReadByteBytes(bts)
		case "ackNeeded":
			z.AckNeeded, bts, err = msgp.ReadBoolBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

// MarshalMsg implements msgp.Marshaler for AffiliationRecord.
func (z AffiliationRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 3)
	o = msgp.AppendString(o, "siteId")
	o = msgp.AppendUint32(o, z.SiteID)
	o = msgp.AppendString(o, "channelNo")
	o = msgp.AppendUint32(o, z.ChannelNo)
	o = msgp.AppendString(o, "failed")
	o = msgp.AppendBool(o, z.Failed)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler for AffiliationRecord.
func (z *AffiliationRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	for i := uint32(0); i < sz; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, err
		}
		switch string(field) {
		case "siteId":
			z.SiteID, bts, err = msgp.ReadUint32Bytes(bts)
		case "channelNo":
			z.ChannelNo, bts, err = msgp.ReadUint32Bytes(bts)
		case "failed":
			z.Failed, bts, err = msgp.ReadBoolBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}
