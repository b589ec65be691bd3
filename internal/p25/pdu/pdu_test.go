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

package pdu

import (
	"testing"

	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knownGoodDataHeader is a hand-built DataHeader decoded and re-encoded
// through EncodeHeaderFEC/DecodeHeaderFEC, checked with cmp.Equal in the
// teacher's internal/db/models/packet_test.go known-good-bytes style.
var knownGoodDataHeader = DataHeader{
	AckNeeded:      true,
	Format:         p25const.PDUFmtConfirmed,
	SAP:            p25const.PDUSAPPacketData,
	LLID:           0x0A0B0C,
	BlocksToFollow: 4,
	PadLength:      2,
}

func TestDataHeaderKnownGoodRoundTrip(t *testing.T) {
	out, err := DecodeHeaderFEC(EncodeHeaderFEC(knownGoodDataHeader))
	require.NoError(t, err)
	if diff := cmp.Diff(knownGoodDataHeader, out); diff != "" {
		t.Errorf("DataHeader round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := DataHeader{
		AckNeeded: true, Format: p25const.PDUFmtUnconfirmed, SAP: p25const.PDUSAPPacketData,
		BlocksToFollow: 2, LLID: 0xABCDEF,
	}
	out, err := DecodeHeaderFEC(EncodeHeaderFEC(h))
	require.NoError(t, err)
	assert.Equal(t, h.AckNeeded, out.AckNeeded)
	assert.Equal(t, h.Format, out.Format)
	assert.Equal(t, h.SAP, out.SAP)
	assert.Equal(t, h.BlocksToFollow, out.BlocksToFollow)
	assert.Equal(t, h.LLID, out.LLID)
}

func TestHeaderTooManyBlocksRejected(t *testing.T) {
	h := DataHeader{Format: p25const.PDUFmtUnconfirmed, BlocksToFollow: 33}
	_, err := DecodeHeaderFEC(EncodeHeaderFEC(h))
	assert.ErrorIs(t, err, ErrTooManyBlocks)
}

func TestHeaderBlocksToFollowThirtyTwoAccepted(t *testing.T) {
	h := DataHeader{Format: p25const.PDUFmtUnconfirmed, BlocksToFollow: 32}
	_, err := DecodeHeaderFEC(EncodeHeaderFEC(h))
	assert.NoError(t, err)
}

func TestUnconfirmedThreeBlockReassembly(t *testing.T) {
	data := make([]byte, 24)
	for i := range data {
		data[i] = byte(i)
	}
	crc := edac.CRC32(data)
	full := append(append([]byte{}, data...),
		byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	// full is 28 bytes; split across three 12-byte unconfirmed blocks
	// (36 bytes), with the trailing 8 bytes understood as padding via
	// the header's PadLength.
	block1 := full[0:12]
	block2 := full[12:24]
	block3 := make([]byte, 12)
	copy(block3, full[24:28])

	h := DataHeader{
		Format: p25const.PDUFmtUnconfirmed, SAP: p25const.PDUSAPPacketData,
		BlocksToFollow: 3, LLID: 0x112233, PadLength: 8,
	}

	r := NewReassembler()
	_, err := r.FeedHeader(EncodeHeaderFEC(h))
	require.NoError(t, err)

	msg, err := r.FeedBlock(h.LLID, EncodeUnconfirmedFEC(block1))
	require.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = r.FeedBlock(h.LLID, EncodeUnconfirmedFEC(block2))
	require.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = r.FeedBlock(h.LLID, EncodeUnconfirmedFEC(block3))
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, h.LLID, msg.Header.LLID)
	assert.Equal(t, data, msg.UserData)
}

func TestRetryBufferClearsOnAck(t *testing.T) {
	r := NewReassembler()
	r.BeginRetry(0x100, []byte("buffered"))

	outcome, bits := r.HandleResponse(0x100, p25const.PDUAckClassACK)
	assert.Equal(t, RetryCleared, outcome)
	assert.Nil(t, bits)

	outcome, _ = r.HandleResponse(0x100, p25const.PDUAckClassACKRetry)
	assert.Equal(t, RetryNone, outcome)
}

func TestRetryBufferNoneWithoutOutstandingSend(t *testing.T) {
	r := NewReassembler()
	outcome, bits := r.HandleResponse(0x200, p25const.PDUAckClassACK)
	assert.Equal(t, RetryNone, outcome)
	assert.Nil(t, bits)
}

// TestRetryBufferExceedsCapAfterThreeAckRetries covers spec.md §8
// Scenario 4: the first two ACK_RETRY responses cause a resend of the
// buffered frame; the third exceeds MaxPDURetryCnt and the buffer is
// cleared.
func TestRetryBufferExceedsCapAfterThreeAckRetries(t *testing.T) {
	r := NewReassembler()
	buffered := []byte("osp-frame")
	r.BeginRetry(0x300, buffered)

	outcome, bits := r.HandleResponse(0x300, p25const.PDUAckClassACKRetry)
	require.Equal(t, RetryResend, outcome)
	assert.Equal(t, buffered, bits)

	outcome, bits = r.HandleResponse(0x300, p25const.PDUAckClassACKRetry)
	require.Equal(t, RetryResend, outcome)
	assert.Equal(t, buffered, bits)

	outcome, bits = r.HandleResponse(0x300, p25const.PDUAckClassACKRetry)
	require.Equal(t, RetryUndeliverable, outcome)
	assert.Nil(t, bits)

	outcome, _ = r.HandleResponse(0x300, p25const.PDUAckClassACKRetry)
	assert.Equal(t, RetryNone, outcome)
}

func TestRetryBufferNackLogsAndClears(t *testing.T) {
	r := NewReassembler()
	r.BeginRetry(0x400, []byte("x"))

	outcome, bits := r.HandleResponse(0x400, p25const.PDUAckClassNACK)
	assert.Equal(t, RetryLogged, outcome)
	assert.Nil(t, bits)

	outcome, _ = r.HandleResponse(0x400, p25const.PDUAckClassACK)
	assert.Equal(t, RetryNone, outcome)
}

func TestAckResponseHeaderRoundTrip(t *testing.T) {
	fec := EncodeAckResponseFEC(0xABCDEF, p25const.PDUAckClassNACK, p25const.PDUAckTypeNACKUndeliverable)
	h, err := DecodeHeaderFEC(fec)
	require.NoError(t, err)
	assert.Equal(t, p25const.PDUFmtRSP, h.Format)
	assert.Equal(t, byte(p25const.PDUAckClassNACK), h.AckClass)
	assert.Equal(t, byte(p25const.PDUAckTypeNACKUndeliverable), h.SAP)
	assert.Equal(t, uint32(0xABCDEF), h.LLID)
}

func TestConfirmedBlockRoundTrip(t *testing.T) {
	payload := make([]byte, ConfirmedPayloadLen)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	b := ConfirmedBlock{Ns: 3, FSN: 5, Payload: payload}
	out, err := DecodeConfirmedFEC(EncodeConfirmedFEC(b))
	require.NoError(t, err)
	assert.Equal(t, b.Ns, out.Ns)
	assert.Equal(t, b.FSN, out.FSN)
	assert.Equal(t, b.Payload, out.Payload)
}
