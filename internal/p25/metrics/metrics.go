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

// Package metrics exposes the Prometheus counters/gauges instrumented
// across the core engine: grants issued/denied, PDU blocks reassembled,
// CRC failures, and active SNDCP contexts. Grounded on the teacher's
// internal/metrics/prometheus.go registration pattern (one struct of
// vecs/gauges built and registered together by NewMetrics).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every counter/gauge the core engine updates.
type Metrics struct {
	GrantsIssuedTotal  prometheus.Counter
	GrantsDeniedTotal  *prometheus.CounterVec
	GrantsReleasedTotal prometheus.Counter

	PDUBlocksReassembledTotal prometheus.Counter
	PDUCrcFailuresTotal       prometheus.Counter
	PDUUndeliverableTotal     prometheus.Counter

	TSBKCrcFailuresTotal prometheus.Counter
	NIDMismatchTotal     prometheus.Counter

	SNDCPActiveContexts prometheus.Gauge

	AdjSiteFailedTotal prometheus.Counter
}

// New builds and registers a fresh Metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GrantsIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_grants_issued_total",
			Help: "Total voice/data channel grants issued.",
		}),
		GrantsDeniedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p25_grants_denied_total",
			Help: "Total grant requests denied, by reason code.",
		}, []string{"reason"}),
		GrantsReleasedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_grants_released_total",
			Help: "Total grants released (timeout or explicit release).",
		}),
		PDUBlocksReassembledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_pdu_blocks_reassembled_total",
			Help: "Total PDU data blocks successfully reassembled.",
		}),
		PDUCrcFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_pdu_crc_failures_total",
			Help: "Total PDU payload CRC-32 validation failures.",
		}),
		PDUUndeliverableTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_pdu_undeliverable_total",
			Help: "Total confirmed PDUs that exhausted their retry budget.",
		}),
		TSBKCrcFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_tsbk_crc_failures_total",
			Help: "Total TSBK blocks dropped for CRC-CCITT-16 failure.",
		}),
		NIDMismatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_nid_mismatch_total",
			Help: "Total frames dropped for failing NID tolerance matching.",
		}),
		SNDCPActiveContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "p25_sndcp_active_contexts",
			Help: "Current number of active SNDCP contexts.",
		}),
		AdjSiteFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p25_adjacent_site_failed_total",
			Help: "Total adjacent-site/SCCB entries that aged out as failed.",
		}),
	}
	reg.MustRegister(
		m.GrantsIssuedTotal, m.GrantsDeniedTotal, m.GrantsReleasedTotal,
		m.PDUBlocksReassembledTotal, m.PDUCrcFailuresTotal, m.PDUUndeliverableTotal,
		m.TSBKCrcFailuresTotal, m.NIDMismatchTotal, m.SNDCPActiveContexts, m.AdjSiteFailedTotal,
	)
	return m
}
