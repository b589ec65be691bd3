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

package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryPubSubPublishIsNoOp(t *testing.T) {
	ps := NewMemory()
	assert.NoError(t, ps.Publish(TopicMBF, []byte("frame")))
	assert.NoError(t, ps.Close())
}

func TestMemoryPubSubSubscribeClosesChannel(t *testing.T) {
	ps := NewMemory()
	sub := ps.Subscribe(TopicAdjSite)
	assert.NoError(t, sub.Close())

	_, ok := <-sub.Channel()
	assert.False(t, ok, "channel should be closed after Close")
}
