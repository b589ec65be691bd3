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

// Package engine wires every P25 core component into one cooperative
// event loop: NID framing, TSBK/TDULC/PDU codecs, the affiliation
// tables, the control-channel scheduler, the trunking opcode handler,
// and the FNE packet-data path. Grounded on the teacher's
// internal/dmr/hub/hub.go lifecycle (Stop/WaitForCalls/done-channel
// shutdown) and its single-struct top-level wiring style.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/dvmproject/p25core/internal/p25/affiliation"
	"github.com/dvmproject/p25core/internal/p25/control"
	"github.com/dvmproject/p25core/internal/p25/fne"
	"github.com/dvmproject/p25core/internal/p25/lookups"
	"github.com/dvmproject/p25core/internal/p25/metrics"
	"github.com/dvmproject/p25core/internal/p25/nid"
	"github.com/dvmproject/p25core/internal/p25/p25const"
	"github.com/dvmproject/p25core/internal/p25/pdu"
	"github.com/dvmproject/p25core/internal/p25/pubsub"
	"github.com/dvmproject/p25core/internal/p25/site"
	"github.com/dvmproject/p25core/internal/p25/sndcp"
	"github.com/dvmproject/p25core/internal/p25/sysconf"
	"github.com/dvmproject/p25core/internal/p25/tdulc"
	"github.com/dvmproject/p25core/internal/p25/trunk"
	"github.com/dvmproject/p25core/internal/p25/tsbk"
)

var tracer = otel.Tracer("p25core")

// Dependencies gathers everything Engine needs that has a meaningful
// external identity (network transport, persistence, permit client).
// RadioACL/TalkgroupACL/PermitClient may be nil: the ACLs then default to
// empty lookups tables, which allow no ID until loaded, and the permit
// client to trunk.NewRESTPermitClient, matching the teacher's "every
// external dependency is optional at wiring time" pattern
// (internal/dmr/hub/hub.go's db/kv params).
type Dependencies struct {
	Site          site.Data
	Idens         *site.IdenTable
	VoiceChannels []uint32
	Config       sysconf.Config
	PubSub       pubsub.PubSub
	Registerer   prometheus.Registerer
	Radios       trunk.RadioACL
	Talkgroups   trunk.TalkgroupACL
	Permit       trunk.PermitClient
	PeerNetwork  fne.PeerNetwork
	Tunnel       fne.Tunnel
	FrameOut     control.FrameSink
	VoiceChannel func(channelNo uint32) (addr string, ok bool)
}

// Engine is the assembled core: one NID framer, one TSBK/PDU/TDULC
// codec set, and the affiliation/control/trunk/fne components operating
// over them.
type Engine struct {
	mu sync.Mutex

	cfg sysconf.Config

	nid        *nid.NID
	tsbkCodec  *tsbk.Codec
	pduReasm   *pdu.Reassembler
	sndcpMgr   *sndcp.Manager
	affTable   *affiliation.Table
	scheduler  *control.Scheduler
	trunkHndlr *trunk.Handler
	fneHndlr   *fne.Handler
	dispatcher *fne.Dispatcher
	bridge     *fne.Bridge
	arp        *fne.ARPTable
	metrics    *metrics.Metrics
	radios     trunk.RadioACL
	talkgroups trunk.TalkgroupACL

	// lastHeaderLLID is the LLID of the most recent on-air PDU header,
	// keying the next sequence of block frames into pduReasm.
	lastHeaderLLID uint32

	done     chan struct{}
	stopOnce sync.Once
}

// New assembles an Engine from sys/deps, registering Prometheus metrics
// against deps.Registerer (a fresh prometheus.NewRegistry() if nil).
func New(deps Dependencies) *Engine {
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	ps := deps.PubSub
	if ps == nil {
		ps = pubsub.NewMemory()
	}

	aff := affiliation.NewTable(deps.VoiceChannels)

	radios := deps.Radios
	if radios == nil {
		radios = lookups.NewRadioTable(nil)
	}
	tgs := deps.Talkgroups
	if tgs == nil {
		tgs = lookups.NewTalkgroupTable(nil)
	}
	permit := deps.Permit
	if permit == nil {
		permit = trunk.NewRESTPermitClient()
	}

	trunkHandler := trunk.NewHandler(aff, radios, tgs, deps.Config, permit, m)
	if deps.VoiceChannel != nil {
		trunkHandler.VoiceChannelAddr = deps.VoiceChannel
	}

	tsbk.AckRspSwapHack = deps.Config.AckRspSwapHack
	codec := tsbk.NewCodec(deps.Config.WarnCRC)
	sched := control.New(codec, deps.Site, deps.Idens, aff, deps.Config, deps.FrameOut, ps)

	arp := fne.NewARPTable()
	var bridge *fne.Bridge
	if deps.Tunnel != nil {
		bridge = fne.NewBridge(arp, deps.Tunnel, 0)
	}
	sndcpMgr := sndcp.NewManager(func(llid uint32) {
		slog.Info("sndcp context expired", "llid", llid)
		if bridge != nil {
			bridge.MarkNotReady(llid)
		}
		m.SNDCPActiveContexts.Dec()
	})

	fneHandler := fne.NewHandler(deps.PeerNetwork, m)
	pduReasm := pdu.NewReassembler()
	dispatcher := fne.NewDispatcher(bridge, sndcpMgr, trunkHandler, pduReasm)

	e := &Engine{
		cfg:        deps.Config,
		nid:        nid.New(0),
		tsbkCodec:  codec,
		pduReasm:   pduReasm,
		sndcpMgr:   sndcpMgr,
		affTable:   aff,
		scheduler:  sched,
		trunkHndlr: trunkHandler,
		fneHndlr:   fneHandler,
		dispatcher: dispatcher,
		bridge:     bridge,
		arp:        arp,
		metrics:    m,
		radios:     radios,
		talkgroups: tgs,
		done:       make(chan struct{}),
	}
	return e
}

// Start launches the control-channel scheduler's periodic tick. Returns
// once the scheduler goroutine is running; call Stop to unwind it.
func (e *Engine) Start(ctx context.Context) error {
	return e.scheduler.Start(ctx)
}

// Stop tears down the control-channel scheduler and signals any blocked
// engine consumers to abort, mirroring the teacher's Hub.Stop idiom
// (stopOnce + closed done channel).
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.scheduler.Stop()
		close(e.done)
	})
}

// Done returns a channel closed when the engine has been stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// HandleInboundFrame decodes a received on-air frame's NID to determine
// its DUID, then routes fec to the matching codec. frame and fec are
// distinct because DUID detection reads a fixed bit range of the
// synchronized air frame while each DUID's FEC payload has its own
// length/coding (spec.md §4); the link/modem layer that frames the two
// apart from raw baseband samples is out of scope here.
func (e *Engine) HandleInboundFrame(ctx context.Context, frame []byte, fec []byte) (*pdu.Message, error) {
	ctx, span := tracer.Start(ctx, "Engine.HandleInboundFrame")
	defer span.End()

	duid, err := e.nid.Decode(frame)
	if err != nil {
		e.metrics.NIDMismatchTotal.Inc()
		return nil, err
	}

	switch duid {
	case p25const.DUIDTSDU:
		t, err := e.tsbkCodec.DecodeFEC(fec)
		if err != nil {
			e.metrics.TSBKCrcFailuresTotal.Inc()
			return nil, err
		}
		e.handleTSBK(ctx, t)
		return nil, nil
	case p25const.DUIDTDULC:
		_, err := tdulc.Decode(fec)
		return nil, err
	case p25const.DUIDPDU:
		return e.handlePDUBlock(ctx, fec)
	default:
		return nil, nil
	}
}

// handleTSBK routes a decoded TSBK through the trunking opcode handler,
// which updates the shared tables. The handler's grant/deny/queue Result
// is discarded here; nothing is queued on the control scheduler or
// transmitted in response.
func (e *Engine) handleTSBK(ctx context.Context, t tsbk.TSBK) {
	switch t.Opcode {
	case p25const.TSBKIOSPGrpVch:
		e.trunkHndlr.HandleGroupVoiceGrant(ctx, t, true)
	case p25const.TSBKIOSPUUVch:
		e.trunkHndlr.HandleUnitToUnitVoiceGrant(ctx, t, true)
	case p25const.TSBKIOSPGrpAff:
		e.trunkHndlr.HandleAffiliation(t)
	case p25const.TSBKIOSPStsQ:
		// Status queries are not acted on at this layer.
	default:
		slog.Debug("engine: unhandled TSBK opcode", "opcode", t.Opcode, "mfid", t.MFID)
	}
}

// handlePDUBlock feeds one PDU header/block FEC frame into the engine's
// single-LLID-keyed reassembler (on-air reception path, distinct from
// fne.Handler's per-peer network reassembly) and dispatches a completed
// message by SAP.
func (e *Engine) handlePDUBlock(ctx context.Context, fec25 []byte) (*pdu.Message, error) {
	msg, err := e.pduReasm.FeedBlock(e.lastHeaderLLID, fec25)
	if err != nil {
		e.metrics.PDUCrcFailuresTotal.Inc()
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	e.metrics.PDUBlocksReassembledTotal.Inc()
	e.dispatcher.Dispatch(ctx, 0, msg)
	return msg, nil
}

// FeedPDUHeader starts a new on-air PDU reassembly for a decoded data
// header FEC frame. Exported separately from HandleInboundFrame since
// the header and block FEC frames arrive as distinct DUID-tagged
// transmissions in the reference implementation.
func (e *Engine) FeedPDUHeader(fec25 []byte) error {
	h, err := e.pduReasm.FeedHeader(fec25)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.lastHeaderLLID = h.LLID
	e.mu.Unlock()
	return nil
}

// AffiliationTable exposes the shared affiliation/grant table for
// callers (e.g. the REST server or CLI) that need read access.
func (e *Engine) AffiliationTable() *affiliation.Table { return e.affTable }

// RadioTable exposes the radio-ID ACL in effect, for external reload
// when it happens to be the default lookups.RadioTable implementation.
func (e *Engine) RadioTable() trunk.RadioACL { return e.radios }

// TalkgroupTable exposes the talkgroup rules ACL in effect, for external
// reload when it happens to be the default lookups.TalkgroupTable
// implementation.
func (e *Engine) TalkgroupTable() trunk.TalkgroupACL { return e.talkgroups }
