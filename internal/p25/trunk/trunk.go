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

// Package trunk implements the trunking opcode handler: the ACL/
// registration/affiliation policy gates and the voice/data channel grant
// controller described in spec.md §4.7. Policy-gate sequencing is
// grounded on the teacher's internal/dmr/rules/rules.go
// (PeerShouldEgress/PeerShouldIngress-style boolean gate chain); the
// outbound REST permit call is grounded on the teacher's client/client.go
// + api/ gin usage style, generalized to a plain net/http PUT (see
// permit.go).
package trunk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dvmproject/p25core/internal/p25/affiliation"
	"github.com/dvmproject/p25core/internal/p25/metrics"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/dvmproject/p25core/internal/p25/sysconf"
	"github.com/dvmproject/p25core/internal/p25/tsbk"
)

// ErrRestPermitFail indicates the voice channel refused the permit-to-use
// call (spec.md §7 RestPermitFail).
var ErrRestPermitFail = errors.New("trunk: voice channel refused permit")

// RadioACL gates VALID_SRCID/VALID_DSTID.
type RadioACL interface {
	Allowed(id uint32) bool
}

// TalkgroupACL gates VALID_TGID / VERIFY_SRCID_AFF.
type TalkgroupACL interface {
	Allowed(tgid uint32) bool
	RequiresAffiliation(tgid uint32) bool
}

// RFListening reports whether the RF path is in a state that can accept
// a new grant request (spec.md §4.7 grant decision step 1). The modem/RF
// state machine itself is out of scope (spec.md §1); the handler only
// consumes this predicate.
type RFListening func() bool

// Result is the outcome of a grant/registration request: at most one of
// Grant, Deny, or Queue is populated (none when HandleDeregistration is
// given an unregistered unit).
type Result struct {
	Grant *tsbk.TSBK
	Deny  *tsbk.TSBK
	Queue *tsbk.TSBK
}

// Handler gates and executes grant, registration, affiliation, and
// location-registration requests against one site's shared tables.
type Handler struct {
	Aff         *affiliation.Table
	Radios      RadioACL
	Talkgroups  TalkgroupACL
	Cfg         sysconf.Config
	Permit      PermitClient
	Metrics     *metrics.Metrics
	IsListening RFListening

	// VoiceChannelAddr resolves a channel number to the voice channel
	// node's address:port for the outbound REST permit call.
	VoiceChannelAddr func(channelNo uint32) (string, bool)

	mu         sync.Mutex
	hangTgid   uint32
	hangExpiry time.Time
}

// NewHandler returns a Handler wired against the given shared tables.
func NewHandler(aff *affiliation.Table, radios RadioACL, tgs TalkgroupACL, cfg sysconf.Config, permit PermitClient, m *metrics.Metrics) *Handler {
	return &Handler{Aff: aff, Radios: radios, Talkgroups: tgs, Cfg: cfg, Permit: permit, Metrics: m, IsListening: func() bool { return true }}
}

// networkHangWindow is how long a granted talkgroup holds the "currently
// active" slot against a competing request for a different talkgroup
// (spec.md §4.7 step 2, PTT_COLLIDE).
const networkHangWindow = 2 * time.Second

func (h *Handler) deny(req tsbk.TSBK, reason byte) Result {
	return Result{Deny: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPDenyRsp,
		ServiceType: req.Opcode, Reason: reason, SrcID: req.SrcID, DstID: req.DstID,
	}}
}

func (h *Handler) queue(req tsbk.TSBK, reason byte) Result {
	return Result{Queue: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPQueRsp,
		ServiceType: req.Opcode, Reason: reason, SrcID: req.SrcID, DstID: req.DstID,
	}}
}

// checkSupportControl implements IS_SUPPORT_CONTROL_CHECK: a request
// arriving while this site is not acting as a control channel is denied
// outright.
func (h *Handler) checkSupportControl(isCC bool) (Result, bool) {
	if isCC {
		return Result{}, true
	}
	return h.deny(tsbk.TSBK{}, p25const.ReasonSysUnsupportedSvc), false
}

func (h *Handler) checkValidSrc(req tsbk.TSBK) (Result, bool) {
	if h.Radios == nil || h.Radios.Allowed(req.SrcID) {
		return Result{}, true
	}
	h.maybeInhibit(req.SrcID)
	return h.deny(req, p25const.ReasonReqUnitNotValid), false
}

func (h *Handler) checkValidDst(req tsbk.TSBK) (Result, bool) {
	if h.Radios == nil || h.Radios.Allowed(req.DstID) {
		return Result{}, true
	}
	h.maybeInhibit(req.SrcID)
	return h.deny(req, p25const.ReasonTgtUnitNotValid), false
}

func (h *Handler) checkValidTgid(req tsbk.TSBK) (Result, bool) {
	if h.Talkgroups == nil || h.Talkgroups.Allowed(req.DstID) {
		return Result{}, true
	}
	return h.deny(req, p25const.ReasonTgtGroupNotValid), false
}

func (h *Handler) checkVerifyReg(req tsbk.TSBK) (Result, bool) {
	if !h.Cfg.VerifyReg || h.Aff.IsRegistered(req.SrcID) {
		return Result{}, true
	}
	return Result{Deny: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPURegCmd, DstID: req.SrcID,
	}}, false
}

func (h *Handler) checkVerifyAff(req tsbk.TSBK) (Result, bool) {
	if !h.Cfg.VerifyAff || !h.Talkgroups.RequiresAffiliation(req.DstID) {
		return Result{}, true
	}
	if _, ok := h.Aff.AffiliatedGroup(req.SrcID); ok {
		return Result{}, true
	}
	return Result{Deny: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPURegCmd, DstID: req.SrcID,
	}}, false
}

// maybeInhibit auto-sends an EXT_FNCT inhibit to srcId when
// cfg.InhibitIllegal is set (spec.md §4.7). The actual on-air send is the
// caller's responsibility; this only records intent via a log line, since
// the inhibit opcode's service-type encoding is vendor/deployment
// specific and not modeled as a distinct TSBK variant here.
func (h *Handler) maybeInhibit(srcId uint32) {
	if h.Cfg.InhibitIllegal {
		slog.Info("trunk: auto-inhibit issued", "srcId", srcId)
	}
}

// HandleGroupVoiceGrant processes an IOSP_GRP_VCH request, gating on
// policy (spec.md §4.7) before executing the grant decision.
func (h *Handler) HandleGroupVoiceGrant(ctx context.Context, req tsbk.TSBK, isCC bool) Result {
	if res, ok := h.checkSupportControl(isCC); !ok {
		return res
	}
	if res, ok := h.checkValidSrc(req); !ok {
		return res
	}
	if res, ok := h.checkValidTgid(req); !ok {
		return res
	}
	if res, ok := h.checkVerifyReg(req); !ok {
		return res
	}
	if res, ok := h.checkVerifyAff(req); !ok {
		return res
	}
	return h.grant(ctx, req, false)
}

// HandleUnitToUnitVoiceGrant processes an IOSP_UU_VCH request. Per
// spec.md §6 UnitToUnitAvailCheck, the destination unit's availability is
// the caller's own RF-state concern; this handler applies the same ACL
// gates as group grants but against the destination unit ID rather than
// a talkgroup.
func (h *Handler) HandleUnitToUnitVoiceGrant(ctx context.Context, req tsbk.TSBK, isCC bool) Result {
	if res, ok := h.checkSupportControl(isCC); !ok {
		return res
	}
	if res, ok := h.checkValidSrc(req); !ok {
		return res
	}
	if res, ok := h.checkValidDst(req); !ok {
		return res
	}
	return h.grant(ctx, req, true)
}

func (h *Handler) grant(ctx context.Context, req tsbk.TSBK, unitToUnit bool) Result {
	if !h.IsListening() {
		return h.deny(req, p25const.ReasonNoRFRsrcAvail)
	}

	h.mu.Lock()
	if h.hangTgid != 0 && h.hangTgid != req.DstID && time.Now().Before(h.hangExpiry) {
		h.mu.Unlock()
		return h.deny(req, p25const.ReasonPTTCollide)
	}
	h.hangTgid = req.DstID
	h.hangExpiry = time.Now().Add(networkHangWindow)
	h.mu.Unlock()

	ch, ok := h.Aff.Grant(req.DstID)
	if !ok {
		return h.queue(req, p25const.ReasonChnResourceNotAvail)
	}

	if h.Cfg.Authoritative && h.Cfg.Supervisor && h.Permit != nil && h.VoiceChannelAddr != nil {
		addr, known := h.VoiceChannelAddr(ch)
		if !known {
			h.Aff.Release(req.DstID)
			return h.deny(req, p25const.ReasonPTTBonk)
		}
		if err := h.Permit.PermitTG(ctx, addr, req.DstID); err != nil {
			slog.Warn("trunk: permit-tg failed", "dstId", req.DstID, "error", err)
			h.Aff.Release(req.DstID)
			return h.deny(req, p25const.ReasonPTTBonk)
		}
	}

	if h.Metrics != nil {
		h.Metrics.GrantsIssuedTotal.Inc()
	}

	opcode := p25const.TSBKIOSPGrpVch
	if unitToUnit {
		opcode = p25const.TSBKIOSPUUVch
	}
	return Result{Grant: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: opcode,
		Emergency: req.Emergency, Encrypted: req.Encrypted, Priority: req.Priority,
		SrcID: req.SrcID, DstID: req.DstID, ChannelNo: ch,
	}}
}

// HandleUnitRegistration processes IOSP_U_REG / ISP_LOC_REG_REQ-style
// registration requests (spec.md §4.7).
func (h *Handler) HandleUnitRegistration(req tsbk.TSBK, sysIdMatches bool) Result {
	if !sysIdMatches {
		return h.deny(req, p25const.ReasonReqUnitNotValid)
	}
	if h.Radios != nil && !h.Radios.Allowed(req.SrcID) {
		h.maybeInhibit(req.SrcID)
		return h.deny(req, p25const.ReasonTgtUnitRefused)
	}
	h.Aff.RegisterUnit(req.SrcID)
	return Result{Grant: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPURegCmd,
		SrcID: req.SrcID, DstID: req.SrcID,
	}}
}

// HandleDeregistration processes ISP_U_DEREG_REQ.
func (h *Handler) HandleDeregistration(req tsbk.TSBK) Result {
	if !h.Aff.IsRegistered(req.SrcID) {
		return Result{}
	}
	h.Aff.DeregisterUnit(req.SrcID)
	return Result{Grant: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPUDeregAck, SrcID: req.SrcID,
	}}
}

// HandleAffiliation processes IOSP_GRP_AFF.
func (h *Handler) HandleAffiliation(req tsbk.TSBK) Result {
	if res, ok := h.checkValidSrc(req); !ok {
		return res
	}
	if res, ok := h.checkValidTgid(req); !ok {
		return res
	}
	h.Aff.Affiliate(req.SrcID, req.DstID)
	return Result{Grant: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKIOSPAckRsp,
		SrcID: req.SrcID, DstID: req.DstID,
	}}
}

// HandleLocationRegistration processes ISP_LOC_REG_REQ.
func (h *Handler) HandleLocationRegistration(req tsbk.TSBK, sysIdMatches bool) Result {
	if !sysIdMatches {
		return h.deny(req, p25const.ReasonReqUnitNotValid)
	}
	h.Aff.RegisterUnit(req.SrcID)
	return Result{Grant: &tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPLocRegRsp,
		SrcID: req.SrcID, DstID: req.DstID,
	}}
}

// HandlePatchSuperGroup processes a Motorola GRG_ADD/GRG_VCH_GRANT
// patch-supergroup request (SPEC_FULL.md SUPPLEMENTED FEATURES): patch
// state is exposed on the same grant table as standard group grants so
// the control-channel scheduler's rotation sees no difference between a
// patched and a plain group grant.
func (h *Handler) HandlePatchSuperGroup(ctx context.Context, req tsbk.TSBK) Result {
	if !h.Cfg.PatchSuperGroup {
		return h.deny(req, p25const.ReasonSysUnsupportedSvc)
	}
	return h.grant(ctx, req, false)
}
