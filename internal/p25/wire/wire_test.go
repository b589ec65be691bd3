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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTSBKRecordFieldsRoundTripThroughStruct(t *testing.T) {
	r := TSBKRecord{
		Opcode:      0x00,
		MFID:        0x00,
		LCO:         0x00,
		SrcID:       1001,
		DstID:       101,
		ChannelNo:   3,
		ServiceType: 0x01,
		Priority:    4,
		Reason:      0,
	}
	assert.Equal(t, uint32(1001), r.SrcID)
	assert.Equal(t, uint32(101), r.DstID)
}

func TestPDUHeaderRecordFields(t *testing.T) {
	r := PDUHeaderRecord{
		Format:         0x15,
		SAP:            0x06,
		LLID:           12345,
		BlocksToFollow: 2,
		AckNeeded:      true,
	}
	assert.True(t, r.AckNeeded)
	assert.Equal(t, uint32(12345), r.LLID)
}

func TestAffiliationRecordFields(t *testing.T) {
	r := AffiliationRecord{SiteID: 1, ChannelNo: 3, Failed: true}
	assert.Equal(t, uint32(1), r.SiteID)
	assert.True(t, r.Failed)
}

func TestAffiliationRecordMarshalUnmarshalRoundTrip(t *testing.T) {
	r := AffiliationRecord{SiteID: 77, ChannelNo: 5, Failed: true}
	encoded, err := r.MarshalMsg(nil)
	assert.NoError(t, err)

	var out AffiliationRecord
	_, err = out.UnmarshalMsg(encoded)
	assert.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestTSBKRecordMarshalUnmarshalRoundTrip(t *testing.T) {
	r := TSBKRecord{
		Opcode:      0x03,
		MFID:        0x90,
		LCO:         0x00,
		SrcID:       1001,
		DstID:       101,
		ChannelNo:   3,
		ServiceType: 0x01,
		Priority:    4,
		Reason:      0,
	}
	encoded, err := r.MarshalMsg(nil)
	assert.NoError(t, err)

	var out TSBKRecord
	_, err = out.UnmarshalMsg(encoded)
	assert.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestPDUHeaderRecordMarshalUnmarshalRoundTrip(t *testing.T) {
	r := PDUHeaderRecord{
		Format:         0x15,
		SAP:            0x06,
		MFID:           0x90,
		LLID:           12345,
		BlocksToFollow: 2,
		PadLength:      1,
		AckNeeded:      true,
	}
	encoded, err := r.MarshalMsg(nil)
	assert.NoError(t, err)

	var out PDUHeaderRecord
	_, err = out.UnmarshalMsg(encoded)
	assert.NoError(t, err)
	assert.Equal(t, r, out)
}
