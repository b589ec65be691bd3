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

package sndcp

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateRejectsStaticAndDynamicIPv4(t *testing.T) {
	m := NewManager(nil)
	assert.ErrorIs(t, m.Activate(1, 0, NATIPv4Static), ErrRejected)
	assert.ErrorIs(t, m.Activate(1, 0, NATIPv4Dyn), ErrRejected)
}

func TestActivateAndTouchTransitions(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Activate(42, 3, 0x00))
	st, ok := m.Lookup(42)
	require.True(t, ok)
	assert.Equal(t, StateReadyS, st)

	m.Touch(42)
	st, _ = m.Lookup(42)
	assert.Equal(t, StateReady, st)
}

func TestReadyTimerExpiryNotifiesAndGoesIdle(t *testing.T) {
	var notified int32
	done := make(chan struct{}, 1)
	m := NewManager(func(llid uint32) {
		atomic.AddInt32(&notified, 1)
		done <- struct{}{}
	})
	m.readyTimeout = 20 * time.Millisecond
	require.NoError(t, m.Activate(7, 0, 0x00))

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("ready timer did not fire in time")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
	st, _ := m.Lookup(7)
	assert.Equal(t, StateIdle, st)
}

func TestDeactivateRemovesContext(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Activate(9, 0, 0x00))
	m.Deactivate(9)
	_, ok := m.Lookup(9)
	assert.False(t, ok)
}
