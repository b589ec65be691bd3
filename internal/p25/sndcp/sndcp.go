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

// Package sndcp implements the SNDCP context state machine that tracks
// per-LLID data session lifecycle (activation, ready/standby, teardown).
// Grounded on original_source/src/common/p25/sndcp/SNDCPCtxAct*.{h,cpp}
// for the PDU shapes this machine reacts to; the timer/state-record
// pattern follows the teacher's internal/dmr/hub/hub.go per-call timer
// bookkeeping (time.AfterFunc-driven expiry, mutex-guarded map).
package sndcp

import (
	"errors"
	"sync"
	"time"
)

// State is a SNDCP context's lifecycle state (spec.md §4.5.1).
type State int

const (
	StateClosed State = iota
	StateIdle
	StateReadyS // "ready, signalling" -- activation accepted, awaiting traffic
	StateStandby
	StateReady
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateIdle:
		return "IDLE"
	case StateReadyS:
		return "READY_S"
	case StateStandby:
		return "STANDBY"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Network address types carried on ACT_TDS_CTX (SNDCPCtxActRequest.NAT).
const (
	NATIPv4Static = 0x01
	NATIPv4Dyn    = 0x02
)

const (
	readyTimerDuration   = 10 * time.Second
	standbyTimerDuration = 60 * time.Second
)

// ErrRejected indicates an activation request is rejected outright
// (spec.md §4.5.1: IPv4 static and, in this release, IPv4 dynamic are
// both rejected).
var ErrRejected = errors.New("sndcp: context activation rejected")

// TerminateFunc is invoked when a context's ready timer expires: the
// caller emits a TDULC LC_CALL_TERM and notifies the control channel.
type TerminateFunc func(llid uint32)

// Context tracks one LLID's SNDCP session.
type Context struct {
	LLID         uint32
	State        State
	NSAPI        uint8
	readyTimer   *time.Timer
	standbyTimer *time.Timer
}

// Manager owns the table of active SNDCP contexts, one mutex per the
// table as described in spec.md §5.
type Manager struct {
	mu       sync.Mutex
	contexts map[uint32]*Context
	onExpire TerminateFunc
	now      func() time.Time

	readyTimeout   time.Duration
	standbyTimeout time.Duration
}

// NewManager returns an empty Manager. onExpire is called (without the
// manager's lock held) whenever a context's ready timer lapses.
func NewManager(onExpire TerminateFunc) *Manager {
	return &Manager{
		contexts:       make(map[uint32]*Context),
		onExpire:       onExpire,
		now:            time.Now,
		readyTimeout:   readyTimerDuration,
		standbyTimeout: standbyTimerDuration,
	}
}

// Activate processes an ACT_TDS_CTX request for llid. nat selects the
// requested network address type; only dynamic/static IPv4 are modeled,
// and both are rejected in this release (spec.md §4.5.1, Open Question
// resolved as: no DHCP-style dynamic allocation is implemented here).
func (m *Manager) Activate(llid uint32, nsapi uint8, nat uint8) error {
	if nat == NATIPv4Static || nat == NATIPv4Dyn {
		return ErrRejected
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ctx := &Context{LLID: llid, NSAPI: nsapi, State: StateReadyS}
	m.contexts[llid] = ctx
	m.armReadyTimer(ctx)
	return nil
}

func (m *Manager) armReadyTimer(ctx *Context) {
	if ctx.readyTimer != nil {
		ctx.readyTimer.Stop()
	}
	llid := ctx.LLID
	ctx.readyTimer = time.AfterFunc(m.readyTimeout, func() {
		m.expireReady(llid)
	})
}

func (m *Manager) expireReady(llid uint32) {
	m.mu.Lock()
	ctx, ok := m.contexts[llid]
	if !ok || ctx.State == StateIdle {
		m.mu.Unlock()
		return
	}
	ctx.State = StateIdle
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(llid)
	}
}

// Touch marks traffic activity on an established context, refreshing
// READY_S into READY and resetting the ready timer.
func (m *Manager) Touch(llid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[llid]
	if !ok {
		return
	}
	if ctx.State == StateReadyS {
		ctx.State = StateReady
	}
	m.armReadyTimer(ctx)
}

// Standby transitions an established context into the low-activity
// STANDBY state, arming the 60s standby timer.
func (m *Manager) Standby(llid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[llid]
	if !ok {
		return
	}
	ctx.State = StateStandby
	if ctx.standbyTimer != nil {
		ctx.standbyTimer.Stop()
	}
	ctx.standbyTimer = time.AfterFunc(m.standbyTimeout, func() {
		m.expireReady(llid)
	})
}

// Deactivate processes a DEACT_TDS_CTX_REQ for llid: the caller
// acknowledges, emits a call-termination TDULC, and resets the context.
func (m *Manager) Deactivate(llid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[llid]
	if !ok {
		return
	}
	if ctx.readyTimer != nil {
		ctx.readyTimer.Stop()
	}
	if ctx.standbyTimer != nil {
		ctx.standbyTimer.Stop()
	}
	delete(m.contexts, llid)
}

// Lookup returns the current state of llid's context, if any.
func (m *Manager) Lookup(llid uint32) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[llid]
	if !ok {
		return StateClosed, false
	}
	return ctx.State, true
}
