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
	"net"
	"sync"
)

// ARPTable maps logical link IDs to IPv4 addresses, resolved from
// PDUSAPARP request/reply traffic (spec.md §4.8 "ARP-like resolution").
// Grounded on the teacher's in-memory lookup-table pattern
// (internal/repeaterdb), simplified to a plain bidirectional map since
// entries never expire on their own in the reference implementation.
type ARPTable struct {
	mu      sync.RWMutex
	byLLID  map[uint32]net.IP
	byIP    map[string]uint32
}

// NewARPTable returns an empty ARPTable.
func NewARPTable() *ARPTable {
	return &ARPTable{byLLID: make(map[uint32]net.IP), byIP: make(map[string]uint32)}
}

// Learn records (or overwrites) the LLID<->IP mapping observed in an
// ARP reply.
func (t *ARPTable) Learn(llid uint32, ip net.IP) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.byLLID[llid]; ok {
		delete(t.byIP, old.String())
	}
	t.byLLID[llid] = ip
	t.byIP[ip.String()] = llid
}

// ResolveIP returns the LLID bound to ip, if any.
func (t *ARPTable) ResolveIP(ip net.IP) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	llid, ok := t.byIP[ip.String()]
	return llid, ok
}

// ResolveLLID returns the IP bound to llid, if any.
func (t *ARPTable) ResolveLLID(llid uint32) (net.IP, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ip, ok := t.byLLID[llid]
	return ip, ok
}
