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

package fne

import (
	"log/slog"
	"net"
	"sync"
	"time"
)

// suNotReadyTimeout bounds how long the tunnel bridge waits for a
// subscriber unit to signal readiness (CONV_DATA_REG / re-registration)
// before dropping a queued packet (spec.md §4.8).
const suNotReadyTimeout = 5 * time.Second

// Tunnel is the minimal virtual network interface the bridge drains
// outbound IPv4 packets from and injects inbound ones into. A real
// deployment backs this with a TUN device; tests back it with a channel.
type Tunnel interface {
	Write(packet []byte) error
}

// readyState tracks whether a given LLID is currently able to accept a
// packet (spec.md §4.8 readyForPkt gating).
type readyState struct {
	ready    bool
	waitSince time.Time
}

// Bridge ties the virtual tunnel device to the PDU packet-data call
// path: IPv4 packets queued for transmission drain one per tick, gated
// by each destination's readiness and resolved to an LLID via arp.
// Grounded on original_source/src/fne/network/callhandler/packetdata/P25PacketData.cpp's
// m_packetDataQueue / readyForPkt handling, following the teacher's
// single bounded channel + drain-one-per-tick idiom
// (internal/dmr/netscheduler/scheduler.go).
type Bridge struct {
	mu     sync.Mutex
	arp    *ARPTable
	ready  map[uint32]*readyState
	queue  chan queuedPacket
	tunnel Tunnel
}

type queuedPacket struct {
	dstIP   net.IP
	payload []byte
}

// NewBridge returns a Bridge with a bounded outbound queue, delivering
// drained packets to tunnel.
func NewBridge(arp *ARPTable, tunnel Tunnel, queueDepth int) *Bridge {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Bridge{
		arp:    arp,
		ready:  make(map[uint32]*readyState),
		queue:  make(chan queuedPacket, queueDepth),
		tunnel: tunnel,
	}
}

// MarkReady records that llid has completed registration/affiliation and
// can now receive queued packet data (spec.md §4.8).
func (b *Bridge) MarkReady(llid uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready[llid] = &readyState{ready: true}
}

// MarkNotReady clears llid's readiness, starting the suNotReadyTimeout
// clock on its next queued packet.
func (b *Bridge) MarkNotReady(llid uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ready, llid)
}

// Enqueue queues an IPv4 packet destined for dstIP for delivery over the
// air once the resolved LLID is ready; it drops the packet only when the
// queue is full. DrainOne drops a packet whose destination has no ARP
// binding, without sending an ARP request (no pending ARP queue, unlike the
// reference implementation's single-slot cache — spec.md leaves queue
// depth/backpressure an Open Question, resolved in favor of the
// teacher's bounded-channel-drop idiom).
func (b *Bridge) Enqueue(dstIP net.IP, payload []byte) bool {
	select {
	case b.queue <- queuedPacket{dstIP: dstIP, payload: payload}:
		return true
	default:
		slog.Warn("fne: tunnel queue full, dropping packet", "dst", dstIP)
		return false
	}
}

// DrainOne services at most one queued packet, returning false if the
// queue was empty. Called once per scheduler tick (spec.md §4.8 "one
// packet per tick").
func (b *Bridge) DrainOne(emit func(llid uint32, payload []byte)) bool {
	var pkt queuedPacket
	select {
	case pkt = <-b.queue:
	default:
		return false
	}

	llid, ok := b.arp.ResolveIP(pkt.dstIP)
	if !ok {
		slog.Warn("fne: no ARP binding, dropping packet", "dst", pkt.dstIP)
		return true
	}

	b.mu.Lock()
	st, known := b.ready[llid]
	if !known {
		st = &readyState{waitSince: time.Now()}
		b.ready[llid] = st
	}
	readyNow := st.ready
	timedOut := !readyNow && time.Since(st.waitSince) > suNotReadyTimeout
	b.mu.Unlock()

	switch {
	case readyNow:
		emit(llid, pkt.payload)
	case timedOut:
		slog.Warn("fne: subscriber unit not ready, dropping packet", "llid", llid)
	default:
		// Requeue once; give the SU a chance to finish registering
		// within suNotReadyTimeout before the packet is dropped.
		select {
		case b.queue <- pkt:
		default:
		}
	}
	return true
}

// Deliver injects an inbound reassembled PDU's payload into the tunnel
// device, learning the source LLID<->IP mapping opportunistically from
// the IPv4 header's source address.
func (b *Bridge) Deliver(llid uint32, payload []byte) error {
	if len(payload) >= 20 && payload[0]>>4 == 4 {
		src := net.IPv4(payload[12], payload[13], payload[14], payload[15])
		b.arp.Learn(llid, src)
	}
	return b.tunnel.Write(payload)
}
