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

// Package control implements the trunked control-channel scheduler:
// the tick-counter rotation of required/update/extra TSBK messages, MBF
// (multi-block frame) assembly, and adjacent-site/SCCB/IDEN_UP broadcast
// cadence named in spec.md §4.6. Timer/scheduling idiom is grounded on
// the teacher's internal/dmr/netscheduler/scheduler.go (gocron/v2-driven
// periodic jobs); tracing spans follow internal/dmr/hub's
// otel.Tracer("DMRHub").Start(ctx, ...) convention.
package control

import (
	"context"
	"log/slog"
	"sync"
	"time"

	p25pubsub "github.com/dvmproject/p25core/internal/p25/pubsub"
	"github.com/dvmproject/p25core/internal/p25/affiliation"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/dvmproject/p25core/internal/p25/site"
	"github.com/dvmproject/p25core/internal/p25/sysconf"
	"github.com/dvmproject/p25core/internal/p25/tsbk"
	"github.com/dvmproject/p25core/internal/p25/wire"
	"github.com/go-co-op/gocron/v2"
	"go.opentelemetry.io/otel"
)

// tickInterval approximates one P25 logical control-channel slot. The
// real on-air cadence is governed by the modem/baseband layer (out of
// scope, spec.md §1); this is this package's own driving clock when run
// standalone via Start, and is otherwise irrelevant if the caller drives
// Step directly from its own cooperative clock (spec.md §5).
const tickInterval = 180 * time.Millisecond

const (
	timeDateAnnPeriod = 64
	motCCBsiPeriod     = 127
	dvmGitHashPeriod   = 125
)

// FrameSink receives an assembled on-air TSDU/MBF payload frame.
type FrameSink func(frame []byte)

// Scheduler drives one trunked site's control-channel rotation.
type Scheduler struct {
	codec *tsbk.Codec
	site  site.Data
	idens *site.IdenTable
	aff   *affiliation.Table
	cfg   sysconf.Config
	out   FrameSink
	ps    p25pubsub.PubSub

	mu        sync.Mutex
	n         int
	frameCnt  uint64
	microslot uint32
	queue     []tsbk.TSBK

	plannedShutdownAt *time.Time

	sched gocron.Scheduler
	job   gocron.Job
}

// New returns a Scheduler for the given site, gated by cfg, emitting
// assembled frames to out. ps may be nil (no multi-process fan-out).
func New(codec *tsbk.Codec, s site.Data, idens *site.IdenTable, aff *affiliation.Table, cfg sysconf.Config, out FrameSink, ps p25pubsub.PubSub) *Scheduler {
	if ps == nil {
		ps = p25pubsub.NewMemory()
	}
	return &Scheduler{codec: codec, site: s, idens: idens, aff: aff, cfg: cfg, out: out, ps: ps}
}

// Start schedules Step to run every tickInterval via gocron, mirroring
// netscheduler.NewNetScheduler's job-management pattern. Callers driving
// their own cooperative clock should call Step directly instead.
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	job, err := sched.NewJob(
		gocron.DurationJob(tickInterval),
		gocron.NewTask(func() { s.Step(ctx) }),
	)
	if err != nil {
		return err
	}
	s.sched = sched
	s.job = job
	sched.Start()
	return nil
}

// Stop halts the gocron-driven loop, if Start was used.
func (s *Scheduler) Stop() {
	if s.sched == nil {
		return
	}
	_ = s.sched.StopJobs()
	_ = s.sched.Shutdown()
}

// PlanShutdown schedules the Motorola MOT_PSH_CCH "planned control
// channel shutdown" overlay (SPEC_FULL.md SUPPLEMENTED FEATURES) ahead of
// an operator-initiated control/voice channel swap.
func (s *Scheduler) PlanShutdown(effectiveAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plannedShutdownAt = &effectiveAt
}

// Step advances the scheduler by one logical tick, producing the entry
// named for the current n in spec.md §4.6's table, queuing or flushing it
// depending on CtrlTSDUMBF, and returns any assembled frame bytes (for
// callers who want the step's output synchronously instead of via the
// FrameSink).
func (s *Scheduler) Step(ctx context.Context) []byte {
	ctx, span := otel.Tracer("p25core").Start(ctx, "control.Scheduler.Step")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.primaryEntry(s.n); ok {
		s.queue = append(s.queue, entry)
	}
	s.queueOverlays()

	s.frameCnt++
	s.microslot = (s.microslot + 1) % 8000

	// Grant timers advance every tick; adjacent-site/SCCB aging advances
	// once per adjacent-site update interval.
	s.aff.TickGrants(time.Now())
	adjPeriod := time.Duration(p25const.AdjSiteTimerTimeoutSeconds) * time.Second
	if s.cfg.AdjSiteUpdateInterval > 0 {
		adjPeriod = s.cfg.AdjSiteUpdateInterval
	}
	if every := uint64(adjPeriod / tickInterval); every == 0 || s.frameCnt%every == 0 {
		s.aff.TickAdjSites()
		s.aff.TickSCCB()
	}

	cycleBoundary := s.n == 8
	s.n = (s.n + 1) % 9

	var out []byte
	if s.cfg.CtrlTSDUMBF {
		out = s.flushMBF(cycleBoundary)
	} else {
		out = s.flushSingle()
	}
	if len(out) > 0 {
		if s.out != nil {
			s.out(out)
		}
		if err := s.ps.Publish(p25pubsub.TopicMBF, out); err != nil {
			slog.Debug("control: mbf publish failed", "error", err)
		}
	}
	return out
}

// primaryEntry returns the scheduled entry for tick n, or false if
// nothing is due this tick (e.g. no grants to rotate, no adjacent sites).
func (s *Scheduler) primaryEntry(n int) (tsbk.TSBK, bool) {
	switch n {
	case 0:
		return s.idenUpEntry()
	case 1:
		if s.frameCnt%2 == 0 {
			return s.rfssStsBcast(), true
		}
		return s.netStsBcast(), true
	case 2:
		if s.frameCnt%2 == 0 {
			return s.netStsBcast(), true
		}
		return s.rfssStsBcast(), true
	case 3:
		if s.frameCnt%2 == 0 {
			return s.rfssStsBcast(), true
		}
		return s.netStsBcast(), true
	case 4:
		return s.syncBcast(), true
	case 5:
		return s.nextGrantUpdate()
	case 6:
		return s.sndcpChAnn()
	case 7:
		if !s.aff.AnyAdjSites() {
			return tsbk.TSBK{}, false
		}
		return s.nextAdjSite()
	case 8:
		if !s.aff.AnySCCB() {
			return tsbk.TSBK{}, false
		}
		return s.nextSCCB()
	}
	return tsbk.TSBK{}, false
}

func (s *Scheduler) queueOverlays() {
	if s.cfg.CtrlTimeDateAnn && s.frameCnt%timeDateAnnPeriod == 0 {
		s.queue = append(s.queue, tsbk.TSBK{
			MFID:   p25const.MFIDStandard,
			Opcode: p25const.TSBKOSPTimeDateAnn,
			Site:   tsbk.SiteFields{UpdateSeconds: uint32(time.Now().Unix())},
		})
	}
	if s.cfg.DVMExtensions && s.frameCnt%motCCBsiPeriod == 0 {
		s.queue = append(s.queue, s.motCCBsi())
	}
	if s.cfg.DVMExtensions && s.frameCnt%dvmGitHashPeriod == 0 {
		// DVM_GIT_HASH has no standard wire representation; per spec.md §9
		// Open Question (c) this vendor extension is only logged, never
		// actually encoded onto the air, unless a future revision defines
		// a concrete opcode for it.
		slog.Debug("control: dvm git hash overlay due (not wire-encoded)")
	}
	if s.plannedShutdownAt != nil && !time.Now().Before(*s.plannedShutdownAt) {
		s.queue = append(s.queue, s.motPshCch())
		s.plannedShutdownAt = nil
	}
}

// flushSingle emits one queued TSBK per call as an independent
// single-block TSDU (dedicated CC mode without MBF packing).
func (s *Scheduler) flushSingle() []byte {
	if len(s.queue) == 0 {
		return nil
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	t.LastBlock = true
	return tsbk.AssembleMBF(s.codec, []tsbk.TSBK{t})
}

// flushMBF packs three queued TSBKs per TSDU (spec.md §4.6). At a
// schedule-cycle boundary, a short leftover queue (1 or 2 entries) is
// padded per the rule named in spec.md §4.6 rather than held over,
// keeping control-channel latency bounded.
func (s *Scheduler) flushMBF(cycleBoundary bool) []byte {
	if cycleBoundary {
		switch len(s.queue) {
		case 1:
			s.queue = append(s.queue, s.netStsBcast(), s.rfssStsBcast())
		case 2:
			if entry, ok := s.idenUpEntry(); ok {
				s.queue = append(s.queue, entry)
			} else {
				s.queue = append(s.queue, s.rfssStsBcast())
			}
		}
	}
	if len(s.queue) < 3 {
		return nil
	}
	block := append([]tsbk.TSBK(nil), s.queue[:3]...)
	s.queue = s.queue[3:]
	block[2].LastBlock = true
	return tsbk.AssembleMBF(s.codec, block)
}

func (s *Scheduler) rfssStsBcast() tsbk.TSBK {
	return tsbk.TSBK{MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPRFSSStsBcast, Site: s.siteFields()}
}

func (s *Scheduler) netStsBcast() tsbk.TSBK {
	return tsbk.TSBK{MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPNetStsBcast, Site: s.siteFields()}
}

func (s *Scheduler) syncBcast() tsbk.TSBK {
	return tsbk.TSBK{MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPSyncBcast, ChannelNo: s.microslot}
}

func (s *Scheduler) sndcpChAnn() (tsbk.TSBK, bool) {
	if !s.cfg.SNDCPChGrant {
		return tsbk.TSBK{}, false
	}
	return tsbk.TSBK{MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPSNDCPChAnn}, true
}

func (s *Scheduler) motCCBsi() tsbk.TSBK {
	return tsbk.TSBK{MFID: p25const.MFIDMotorola, Opcode: p25const.TSBKOSPMotCCBsi, Site: s.siteFields()}
}

func (s *Scheduler) motPshCch() tsbk.TSBK {
	return tsbk.TSBK{MFID: p25const.MFIDMotorola, Opcode: p25const.TSBKOSPMotPshCch, Site: s.siteFields()}
}

func (s *Scheduler) siteFields() tsbk.SiteFields {
	return tsbk.SiteFields{
		NetID: s.site.NetID, SysID: s.site.SysID, RFSSID: s.site.RFSSID,
		SiteID: s.site.SiteID, ChannelID: byte(s.site.ChannelID), ChannelNo: s.site.ChannelNo,
		ServiceClass: s.site.ServiceClass, LRA: s.site.LRA,
	}
}

// idenUpEntry rotates through the installed channel identifier table,
// one per call, wrapping around; returns false if none are configured.
func (s *Scheduler) idenUpEntry() (tsbk.TSBK, bool) {
	all := s.idens.All()
	if len(all) == 0 {
		return tsbk.TSBK{}, false
	}
	id := all[int(s.frameCnt)%len(all)]
	return tsbk.TSBK{
		MFID:   p25const.MFIDStandard,
		Opcode: p25const.TSBKOSPIdenUp,
		Site: tsbk.SiteFields{
			ChannelID: id.ID, BaseFreqHz: id.BaseFrequency,
			SpacingHz: id.ChannelSpacingHz, TxOffsetMHz: id.TransOffsetMHz,
		},
	}, true
}

// nextGrantUpdate rotates one GRP_VCH_GRANT_UPD per active grant, one per
// call; returns false if no grants are active.
func (s *Scheduler) nextGrantUpdate() (tsbk.TSBK, bool) {
	grants := s.aff.Grants()
	if len(grants) == 0 {
		return tsbk.TSBK{}, false
	}
	g := grants[int(s.frameCnt)%len(grants)]
	return tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPGrpVchGrantUpd,
		DstID: g.DstID, ChannelNo: g.ChannelNo,
	}, true
}

func (s *Scheduler) nextAdjSite() (tsbk.TSBK, bool) {
	sites := s.aff.AdjSites()
	if len(sites) == 0 {
		return tsbk.TSBK{}, false
	}
	e := sites[int(s.frameCnt)%len(sites)]
	s.publishAdjSiteRecord(p25pubsub.TopicAdjSite, e)
	t := tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPAdjStsBcast,
		Site: tsbk.SiteFields{
			NetID: e.Data.NetID, SysID: e.Data.SysID, RFSSID: e.Data.RFSSID,
			SiteID: e.Data.SiteID, ChannelID: byte(e.Data.ChannelID), ChannelNo: e.Data.ChannelNo,
		},
	}
	if e.Failed {
		// CFVA FAILURE bit: modeled via the top bit of ServiceClass per
		// spec.md §8 scenario 5 ("carries CFVA with the FAILURE bit set").
		t.Site.ServiceClass = e.Data.ServiceClass | 0x80
	}
	return t, true
}

// publishAdjSiteRecord ships e as a msgp-encoded wire.AffiliationRecord
// over topic, so a peer core instance can mirror adjacent-site/SCCB
// aging state without decoding the on-air TSBK itself.
func (s *Scheduler) publishAdjSiteRecord(topic string, e affiliation.AdjSiteSnapshot) {
	rec := wire.AffiliationRecord{SiteID: e.SiteID, ChannelNo: e.Data.ChannelNo, Failed: e.Failed}
	payload, err := rec.MarshalMsg(nil)
	if err != nil {
		slog.Debug("control: affiliation record marshal failed", "error", err)
		return
	}
	if err := s.ps.Publish(topic, payload); err != nil {
		slog.Debug("control: adjsite/sccb publish failed", "topic", topic, "error", err)
	}
}

func (s *Scheduler) nextSCCB() (tsbk.TSBK, bool) {
	entries := s.aff.SCCBEntries()
	if len(entries) == 0 {
		return tsbk.TSBK{}, false
	}
	e := entries[int(s.frameCnt)%len(entries)]
	s.publishAdjSiteRecord(p25pubsub.TopicSCCB, e)
	return tsbk.TSBK{
		MFID: p25const.MFIDStandard, Opcode: p25const.TSBKOSPSccbExp,
		Site: tsbk.SiteFields{
			NetID: e.Data.NetID, SysID: e.Data.SysID, RFSSID: e.Data.RFSSID,
			SiteID: e.Data.SiteID, ChannelID: byte(e.Data.ChannelID), ChannelNo: e.Data.ChannelNo,
		},
	}, true
}
