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

// Package site models the P25 site identity record and the channel
// identifier table used to resolve a grant's channel number to RF
// frequency parameters. Grounded on original_source/p25/P25Defines.h and
// TrunkPacket.cpp's identifier-update broadcast handling.
package site

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Data groups the identity fields broadcast by a control channel.
type Data struct {
	NetID        uint32
	SysID        uint32
	RFSSID       uint32
	SiteID       uint32
	ChannelID    uint32
	ChannelNo    uint32
	ServiceClass uint8
	LRA          uint8
	NetActive    bool
	ChCnt        uint32
}

// New builds a Data value, clamping every field to the ranges named in
// spec.md §3.
func New(netID, sysID, rfssID, siteID, channelID, channelNo uint32, serviceClass, lra uint8) Data {
	return Data{
		NetID:        clamp(netID, 1, 0xFFFFE),
		SysID:        clamp(sysID, 1, 0xFFE),
		RFSSID:       clamp(rfssID, 1, 0xFE),
		SiteID:       clamp(siteID, 1, 0xFE),
		ChannelID:    clamp(channelID, 0, 15),
		ChannelNo:    clamp(channelNo, 0, 0xFFF),
		ServiceClass: serviceClass,
		LRA:          lra,
	}
}

// ChannelIdentifier carries the per-identifier band plan parameters
// broadcast via IDEN_UP/IDEN_UP_VU, used to resolve a ChannelNo to an
// actual RF frequency.
type ChannelIdentifier struct {
	ID            uint8
	BaseFrequency uint32 // Hz
	BandwidthKHz  uint32
	TransOffsetMHz int32
	ChannelSpacingHz uint32
}

// Frequency computes the RF frequency in Hz for a given channel number
// under this identifier's band plan.
func (c ChannelIdentifier) Frequency(channelNo uint32) uint32 {
	return c.BaseFrequency + channelNo*c.ChannelSpacingHz
}

// IdenTable is a simple per-site lookup of channel identifiers by ID
// (0..15), populated from received/configured IDEN_UP records.
type IdenTable struct {
	entries map[uint8]ChannelIdentifier
}

// NewIdenTable returns an empty identifier table.
func NewIdenTable() *IdenTable {
	return &IdenTable{entries: make(map[uint8]ChannelIdentifier)}
}

// Set installs or replaces a channel identifier entry.
func (t *IdenTable) Set(id ChannelIdentifier) {
	t.entries[id.ID] = id
}

// Get looks up a channel identifier by ID.
func (t *IdenTable) Get(id uint8) (ChannelIdentifier, bool) {
	v, ok := t.entries[id]
	return v, ok
}

// All returns every installed channel identifier, unordered.
func (t *IdenTable) All() []ChannelIdentifier {
	out := make([]ChannelIdentifier, 0, len(t.entries))
	for _, v := range t.entries {
		out = append(out, v)
	}
	return out
}
