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

// Package pubsub adapts the teacher's internal/pubsub Redis/in-memory
// fan-out (internal/pubsub/redis.go, memory.go) to this module's domain:
// the control-channel scheduler publishes assembled MBF frames and
// adjacent-site/SCCB table changes on named topics so a multi-process FNE
// deployment can mirror one site's control-channel traffic across sibling
// processes (SPEC_FULL.md DOMAIN STACK).
package pubsub

// PubSub is the minimal fan-out contract the control package depends on,
// matching the teacher's internal/pubsub.PubSub shape.
type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string) Subscription
	Close() error
}

// Subscription is a live subscription to a topic.
type Subscription interface {
	Close() error
	Channel() <-chan []byte
}

// Topic names used by the control package.
const (
	TopicMBF         = "p25.control.mbf"
	TopicAdjSite     = "p25.control.adjsite"
	TopicSCCB        = "p25.control.sccb"
)
