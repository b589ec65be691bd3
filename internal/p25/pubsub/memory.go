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

// NewMemory returns a no-op, in-process PubSub, adapted from the teacher's
// internal/pubsub/memory.go inMemoryPubSub for single-process deployments
// where no fan-out is needed.
func NewMemory() PubSub {
	return memoryPubSub{}
}

type memoryPubSub struct{}

func (memoryPubSub) Publish(string, []byte) error { return nil }

func (memoryPubSub) Subscribe(string) Subscription {
	return memorySubscription{ch: make(chan []byte)}
}

func (memoryPubSub) Close() error { return nil }

type memorySubscription struct {
	ch chan []byte
}

func (s memorySubscription) Close() error {
	close(s.ch)
	return nil
}

func (s memorySubscription) Channel() <-chan []byte {
	return s.ch
}
