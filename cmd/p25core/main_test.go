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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommandDefaultFlags(t *testing.T) {
	cmd := newCommand("test", "abc123")
	addr, err := cmd.Flags().GetString("rest-addr")
	assert.NoError(t, err)
	assert.Equal(t, ":9990", addr)

	origin, err := cmd.Flags().GetString("cors-origin")
	assert.NoError(t, err)
	assert.Equal(t, "*", origin)

	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	assert.NoError(t, err)
	assert.Equal(t, ":9991", metricsAddr)

	dbPath, err := cmd.Flags().GetString("db-path")
	assert.NoError(t, err)
	assert.Empty(t, dbPath)

	traceStdout, err := cmd.Flags().GetBool("otel-stdout-trace")
	assert.NoError(t, err)
	assert.False(t, traceStdout)
}

func TestNewCommandUsesVersion(t *testing.T) {
	cmd := newCommand("1.2.3", "deadbeef")
	assert.Contains(t, cmd.Version, "1.2.3")
	assert.Contains(t, cmd.Version, "deadbeef")
}
