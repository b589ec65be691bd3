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

package fne

import (
	"context"
	"errors"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var errBadDstID = errors.New("fne: invalid dstId path parameter")

// restRateLimitRate/Limit bound the inbound signalling webhook the way
// the teacher's internal/http/server.go bounds its API (gin-rate-limit,
// one token bucket per client key), following the teacher's constants
// rather than inventing new tuning.
const (
	restRateLimitRate  = time.Second
	restRateLimitLimit = 20
)

// RESTServer exposes the inbound half of the REST signalling channel
// named in spec.md §6 (voice-channel -> control "permit-tg" is outbound,
// see PermitClient; this is the reciprocal inbound notification path a
// voice channel or external tool uses to push affiliation/PTT-grant
// state changes into the core). Grounded on the teacher's
// internal/http/server.go CreateRouter + gin-contrib/cors +
// gin-rate-limit wiring.
type RESTServer struct {
	engine *gin.Engine
	srv    *http.Server
}

// Dependencies the REST surface dispatches into; kept narrow so this
// package doesn't import control/trunk/engine directly and create an
// import cycle — callers wire concrete closures at construction time.
type Dependencies struct {
	// Deregister is invoked when a voice channel reports a call ended.
	Deregister func(dstID uint32)
	// Healthy reports whether the core event loop is alive, for /healthz.
	Healthy func() bool
}

// NewRESTServer builds the gin engine with CORS + rate limiting and
// registers the packet-data/signalling webhook routes.
func NewRESTServer(addr string, allowedOrigins []string, deps Dependencies) *RESTServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = allowedOrigins
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPut, http.MethodPost}
	r.Use(cors.New(corsCfg))

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  restRateLimitRate,
		Limit: restRateLimitLimit,
	})
	limiter := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, _ ratelimit.Info) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		},
		KeyFunc: func(c *gin.Context) string { return c.ClientIP() },
	})
	r.Use(limiter)

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Healthy != nil && !deps.Healthy() {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	r.PUT("/call-end/:dstId", func(c *gin.Context) {
		var dstID uint32
		if _, err := parseUint32(c.Param("dstId")); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		dstID, _ = parseUint32(c.Param("dstId"))
		if deps.Deregister != nil {
			deps.Deregister(dstID)
		}
		c.Status(http.StatusOK)
	})

	return &RESTServer{
		engine: r,
		srv:    &http.Server{Addr: addr, Handler: r, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
	}
}

func parseUint32(s string) (uint32, error) {
	if s == "" {
		return 0, errBadDstID
	}
	var v uint64
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, errBadDstID
		}
		v = v*10 + uint64(ch-'0')
	}
	return uint32(v), nil
}

// ListenAndServe runs the REST server until ctx is cancelled.
func (s *RESTServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
