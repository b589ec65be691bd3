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

package trunk

import (
	"context"
	"errors"
	"testing"

	"github.com/dvmproject/p25core/internal/p25/affiliation"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/dvmproject/p25core/internal/p25/sysconf"
	"github.com/dvmproject/p25core/internal/p25/tsbk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRadioACL struct{ allowed map[uint32]bool }

func (f fakeRadioACL) Allowed(id uint32) bool { return f.allowed[id] }

type fakeTgACL struct {
	allowed map[uint32]bool
	aff     map[uint32]bool
}

func (f fakeTgACL) Allowed(tgid uint32) bool            { return f.allowed[tgid] }
func (f fakeTgACL) RequiresAffiliation(tgid uint32) bool { return f.aff[tgid] }

type fakePermit struct {
	err   error
	calls int
}

func (p *fakePermit) PermitTG(ctx context.Context, addr string, dstId uint32) error {
	p.calls++
	return p.err
}

func TestGroupVoiceGrantCleanPath(t *testing.T) {
	aff := affiliation.NewTable([]uint32{0x101})
	radios := fakeRadioACL{allowed: map[uint32]bool{1001: true, 5000: true}}
	tgs := fakeTgACL{allowed: map[uint32]bool{5000: true}}
	permit := &fakePermit{}

	h := NewHandler(aff, radios, tgs, sysconf.Config{Authoritative: true, Supervisor: true}, permit, nil)
	h.VoiceChannelAddr = func(uint32) (string, bool) { return "127.0.0.1:9990", true }

	req := tsbk.TSBK{Opcode: p25const.TSBKIOSPGrpVch, SrcID: 1001, DstID: 5000, Priority: 4}
	res := h.HandleGroupVoiceGrant(context.Background(), req, true)

	require.NotNil(t, res.Grant)
	assert.Equal(t, uint32(0x101), res.Grant.ChannelNo)
	assert.Equal(t, 1, permit.calls)

	ch, ok := aff.Grant(5000)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x101), ch)
}

func TestGroupVoiceGrantDeniedUnknownTalkgroup(t *testing.T) {
	aff := affiliation.NewTable([]uint32{0x101})
	radios := fakeRadioACL{allowed: map[uint32]bool{1001: true}}
	tgs := fakeTgACL{allowed: map[uint32]bool{}}

	h := NewHandler(aff, radios, tgs, sysconf.Config{}, nil, nil)
	req := tsbk.TSBK{Opcode: p25const.TSBKIOSPGrpVch, SrcID: 1001, DstID: 9999}
	res := h.HandleGroupVoiceGrant(context.Background(), req, true)

	require.NotNil(t, res.Deny)
	assert.Equal(t, byte(p25const.ReasonTgtGroupNotValid), res.Deny.Reason)
	assert.Equal(t, 0, aff.GrantCount())
}

func TestGrantDeniedWhenNotControlChannel(t *testing.T) {
	aff := affiliation.NewTable([]uint32{1})
	h := NewHandler(aff, nil, nil, sysconf.Config{}, nil, nil)
	res := h.HandleGroupVoiceGrant(context.Background(), tsbk.TSBK{DstID: 5000}, false)
	require.NotNil(t, res.Deny)
	assert.Equal(t, byte(p25const.ReasonSysUnsupportedSvc), res.Deny.Reason)
}

func TestGrantReleasedOnPermitFailure(t *testing.T) {
	aff := affiliation.NewTable([]uint32{1})
	radios := fakeRadioACL{allowed: map[uint32]bool{1: true, 2: true}}
	tgs := fakeTgACL{allowed: map[uint32]bool{2: true}}
	permit := &fakePermit{err: errors.New("refused")}

	h := NewHandler(aff, radios, tgs, sysconf.Config{Authoritative: true, Supervisor: true}, permit, nil)
	h.VoiceChannelAddr = func(uint32) (string, bool) { return "127.0.0.1:9990", true }

	res := h.HandleGroupVoiceGrant(context.Background(), tsbk.TSBK{Opcode: p25const.TSBKIOSPGrpVch, SrcID: 1, DstID: 2}, true)
	require.NotNil(t, res.Deny)
	assert.Equal(t, byte(p25const.ReasonPTTBonk), res.Deny.Reason)
	assert.Equal(t, 0, aff.GrantCount())
}

func TestUnitRegistrationAndDeregistration(t *testing.T) {
	aff := affiliation.NewTable(nil)
	radios := fakeRadioACL{allowed: map[uint32]bool{42: true}}
	h := NewHandler(aff, radios, nil, sysconf.Config{}, nil, nil)

	res := h.HandleUnitRegistration(tsbk.TSBK{SrcID: 42}, true)
	require.NotNil(t, res.Grant)
	assert.True(t, aff.IsRegistered(42))

	dereg := h.HandleDeregistration(tsbk.TSBK{SrcID: 42})
	require.NotNil(t, dereg.Grant)
	assert.False(t, aff.IsRegistered(42))
}
