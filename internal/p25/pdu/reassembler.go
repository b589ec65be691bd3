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
	"errors"
	"sync"
	"time"

	"github.com/dvmproject/p25core/internal/p25/edac"
	"github.com/dvmproject/p25core/internal/p25/p25const"
)

// ErrUndeliverable indicates a confirmed PDU exhausted its retry budget
// (spec.md §7 UndeliverablePDU / MaxPDURetryCnt).
var ErrUndeliverable = errors.New("pdu: undeliverable after max retries")

// CallCollisionTimeout evicts a stale in-flight reassembly after this
// much silence (spec.md §4.5, DataCallCollTimeoutSeconds).
const CallCollisionTimeout = p25const.DataCallCollTimeoutSeconds * time.Second

// Message is a fully reassembled, CRC-32-validated PDU ready for SAP
// dispatch.
type Message struct {
	Header   DataHeader
	UserData []byte
}

// callState is the per-call (per-LLID) reassembly buffer. Ownership is
// exclusive: only one in-flight call per LLID is tracked at a time, per
// spec.md §3 Ownership.
type callState struct {
	header      DataHeader
	blocks      [][]byte
	received    int
	lastActive  time.Time
	retryBuffer []byte
	retryCount  int
}

// Reassembler holds one table of in-flight calls, guarded by a single
// mutex per spec.md §5 (one mutex per shared table).
type Reassembler struct {
	mu    sync.Mutex
	calls map[uint32]*callState
	now   func() time.Time
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{calls: make(map[uint32]*callState), now: time.Now}
}

// RetryOutcome reports how an inbound RESPONSE PDU's ack class was
// matched against the outstanding retry buffer for a call (spec.md §4.5
// RESPONSE dispatch row, §3 Retry buffer, §8 Scenario 4).
type RetryOutcome int

const (
	// RetryNone means llid has no outstanding retry buffer; the
	// response is not ours to act on.
	RetryNone RetryOutcome = iota
	// RetryCleared means an ACK matched and the retry buffer was
	// dropped.
	RetryCleared
	// RetryLogged means a NACK matched; the caller should log the
	// NACK type. The buffer is cleared since no further retry follows
	// a NACK.
	RetryLogged
	// RetryResend means an ACK_RETRY matched within MaxPDURetryCnt; the
	// caller should retransmit the returned bits.
	RetryResend
	// RetryUndeliverable means the ACK_RETRY cap was exceeded; the
	// caller should emit NACK_UNDELIVERABLE. The buffer is cleared.
	RetryUndeliverable
)

// BeginRetry records bits as the last confirmed-delivery frame sent for
// llid, so a subsequent ACK_RETRY response can trigger a resend
// (spec.md §3 Retry buffer). Resets any previous retry count.
func (r *Reassembler) BeginRetry(llid uint32, bits []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.calls[llid]
	if !ok {
		cs = &callState{}
		r.calls[llid] = cs
	}
	cs.retryBuffer = bits
	cs.retryCount = 0
	cs.lastActive = r.now()
}

// HandleResponse matches an inbound RESPONSE PDU's ackClass against
// llid's outstanding retry buffer and returns the action the caller
// should take. bits is only populated for RetryResend.
func (r *Reassembler) HandleResponse(llid uint32, ackClass byte) (outcome RetryOutcome, bits []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.calls[llid]
	if !ok || cs.retryBuffer == nil {
		return RetryNone, nil
	}
	switch ackClass {
	case p25const.PDUAckClassACK:
		cs.retryBuffer = nil
		cs.retryCount = 0
		return RetryCleared, nil
	case p25const.PDUAckClassNACK:
		cs.retryBuffer = nil
		cs.retryCount = 0
		return RetryLogged, nil
	case p25const.PDUAckClassACKRetry:
		cs.retryCount++
		if cs.retryCount > p25const.MaxPDURetryCnt {
			cs.retryBuffer = nil
			cs.retryCount = 0
			return RetryUndeliverable, nil
		}
		return RetryResend, cs.retryBuffer
	default:
		return RetryNone, nil
	}
}

func (r *Reassembler) evictStale() {
	cutoff := r.now().Add(-CallCollisionTimeout)
	for llid, cs := range r.calls {
		if cs.lastActive.Before(cutoff) {
			delete(r.calls, llid)
		}
	}
}

// FeedHeader starts (or, on collision, replaces after eviction) a new
// in-flight call for a data header's FEC frame.
func (r *Reassembler) FeedHeader(fec25 []byte) (DataHeader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictStale()

	h, err := DecodeHeaderFEC(fec25)
	if err != nil {
		return h, err
	}

	// A non-stale entry still present here is a collision (spec.md
	// §4.5); it is simply replaced, restarting the buffer under new
	// ownership rather than merging with the old one.
	r.calls[h.LLID] = &callState{
		header:     h,
		blocks:     make([][]byte, 0, h.BlocksToFollow),
		lastActive: r.now(),
	}
	return h, nil
}

// FeedExtAddr attaches a decoded extended-address second header to the
// in-flight call identified by llid.
func (r *Reassembler) FeedExtAddr(llid uint32, fec25 []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.calls[llid]
	if !ok {
		return nil
	}
	ext, err := DecodeExtAddrFEC(fec25)
	if err != nil {
		return err
	}
	cs.header.ExtAddr = &ext
	cs.lastActive = r.now()
	return nil
}

// FeedBlock Trellis-decodes and appends one data block's FEC frame to
// the in-flight call identified by llid. When the last expected block
// arrives it validates the accumulated payload's CRC-32 and returns the
// completed Message.
func (r *Reassembler) FeedBlock(llid uint32, fec25 []byte) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.calls[llid]
	if !ok {
		return nil, nil
	}
	cs.lastActive = r.now()

	var payload []byte
	if cs.header.Confirmed() {
		b, err := DecodeConfirmedFEC(fec25)
		if err != nil {
			return nil, err
		}
		payload = b.Payload
	} else {
		payload = DecodeUnconfirmedFEC(fec25)
	}

	cs.blocks = append(cs.blocks, payload)
	cs.received++
	if cs.received < int(cs.header.BlocksToFollow) {
		return nil, nil
	}

	full := make([]byte, 0, cs.received*ConfirmedPayloadLen)
	for _, b := range cs.blocks {
		full = append(full, b...)
	}
	if int(cs.header.PadLength) < len(full) {
		full = full[:len(full)-int(cs.header.PadLength)]
	}

	delete(r.calls, llid)

	if len(full) < 4 {
		return nil, ErrUndeliverable
	}
	dataLen := len(full) - 4
	got := edac.CRC32(full[:dataLen])
	want := uint32(full[dataLen])<<24 | uint32(full[dataLen+1])<<16 | uint32(full[dataLen+2])<<8 | uint32(full[dataLen+3])
	if got != want {
		return nil, ErrUndeliverable
	}
	return &Message{Header: cs.header, UserData: full[:dataLen]}, nil
}

// SAP returns a completed Message's header SAP so the caller can route it
// (ARP / PACKET_DATA / SNDCP_CTRL_DATA / CONV_DATA_REG / TRUNK_CTRL /
// RESPONSE / other, spec.md §4.5). This package does no routing itself;
// the SAP handlers live one layer up (fne, sndcp, trunk).
func (m Message) SAP() byte {
	return m.Header.SAP
}
