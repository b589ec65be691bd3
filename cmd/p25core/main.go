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

// Command p25core runs the P25 trunked control-channel core as a single
// binary: the control-channel scheduler, the trunking opcode handler,
// and the FNE packet-data path, fronted by a small REST signalling
// surface. Grounded on the teacher's cmd/root.go cobra + graceful
// shutdown shape, trimmed to this module's own dependency set (no
// configulator/db/kv — sysconf.Config is the whole configuration
// surface here, per spec.md §6's external-loader Non-goal).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dvmproject/p25core/internal/logging"
	"github.com/dvmproject/p25core/internal/p25/engine"
	"github.com/dvmproject/p25core/internal/p25/fne"
	"github.com/dvmproject/p25core/internal/p25/lookups"
	"github.com/dvmproject/p25core/internal/p25/metrics"
	"github.com/dvmproject/p25core/internal/p25/site"
	"github.com/dvmproject/p25core/internal/p25/sysconf"
	"github.com/dvmproject/p25core/internal/p25/trunk"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cmd := newCommand(version, commit)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(version, commit string) *cobra.Command {
	var (
		restAddr    string
		corsOrigin  string
		metricsAddr string
		dbPath      string
		traceStdout bool
		debug       bool
	)
	cmd := &cobra.Command{
		Use:     "p25core",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), runOpts{
				restAddr: restAddr, corsOrigin: corsOrigin, metricsAddr: metricsAddr,
				dbPath: dbPath, traceStdout: traceStdout, debug: debug,
			})
		},
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&restAddr, "rest-addr", ":9990", "address the inbound REST signalling webhook listens on")
	cmd.Flags().StringVar(&corsOrigin, "cors-origin", "*", "allowed CORS origin for the REST signalling webhook")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9991", "address the Prometheus /metrics endpoint listens on")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "sqlite file persisting the radio-ID/talkgroup lookup tables (empty: in-memory only, no persistence)")
	cmd.Flags().BoolVar(&traceStdout, "otel-stdout-trace", false, "register an OpenTelemetry stdout trace exporter for engine spans")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

// runOpts gathers run's CLI-derived options.
type runOpts struct {
	restAddr, corsOrigin, metricsAddr, dbPath string
	traceStdout                               bool
	debug                                     bool
}

func run(ctx context.Context, opts runOpts) error {
	level := logging.LevelInfo
	if opts.debug {
		level = logging.LevelDebug
	}
	logging.Init(level)

	if opts.traceStdout {
		shutdownTracer, err := initTracer()
		if err != nil {
			return fmt.Errorf("p25core: failed to init tracer: %w", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "p25core: failed to shut down tracer: %s\n", err)
			}
		}()
	}

	var radios trunk.RadioACL
	var talkgroups trunk.TalkgroupACL
	if opts.dbPath != "" {
		db, err := lookups.OpenSQLite(opts.dbPath)
		if err != nil {
			return fmt.Errorf("p25core: %w", err)
		}
		radios = lookups.NewRadioTable(db)
		talkgroups = lookups.NewTalkgroupTable(db)
	}

	cfg := sysconf.Default()
	siteData := site.New(1, 1, 1, 1, 0, 1, 0x20, 0)
	idens := site.NewIdenTable()
	idens.Set(site.ChannelIdentifier{ID: 0, BaseFrequency: 851000000, BandwidthKHz: 12, ChannelSpacingHz: 12500})

	registry := prometheus.NewRegistry()
	eng := engine.New(engine.Dependencies{
		Site:          siteData,
		Idens:         idens,
		VoiceChannels: []uint32{1, 2, 3},
		Config:        cfg,
		Registerer:    registry,
		Radios:        radios,
		Talkgroups:    talkgroups,
	})

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("p25core: failed to start engine: %w", err)
	}
	defer eng.Stop()

	rest := fne.NewRESTServer(opts.restAddr, []string{opts.corsOrigin}, fne.Dependencies{
		Healthy: func() bool {
			select {
			case <-eng.Done():
				return false
			default:
				return true
			}
		},
	})

	metricsSrv := metrics.NewServer(opts.metricsAddr, registry)

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, cancelServe := context.WithCancel(gctx)
	defer cancelServe()
	g.Go(func() error { return rest.ListenAndServe(serveCtx) })
	g.Go(func() error { return metricsSrv.ListenAndServe(serveCtx) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "p25core: shutting down on signal %s\n", sig)
	case <-gctx.Done():
		// one of the servers in g failed; its error surfaces from g.Wait below.
	}
	cancelServe()

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()
	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("p25core: server failed: %w", err)
		}
	case <-time.After(5 * time.Second):
		fmt.Fprintln(os.Stderr, "p25core: server shutdown timed out")
	}
	return nil
}

// initTracer registers an SDK TracerProvider exporting to stdout and
// returns its shutdown func, mirroring the teacher's cmd/root.go
// initTracer (otlptrace/otlptracegrpc there; stdouttrace here since this
// module has no OTLP collector dependency of its own).
func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("p25core: failed to create stdout trace exporter: %w", err)
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "p25core"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("p25core: failed to build trace resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
