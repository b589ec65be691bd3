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

// Package sysconf carries the pre-parsed configuration knobs the core
// engine consumes (spec.md §6.5). The on-disk YAML loader and CLI surface
// that populate this struct are named Non-goals; field tags still follow
// the teacher's configulator/yaml.v3 convention (github.com/USA-RedDragon/
// configulator, gopkg.in/yaml.v3) so an external loader can bind directly
// without this module importing either.
package sysconf

import "time"

// Config groups every knob named in spec.md §6.5.
type Config struct {
	// Authoritative and Supervisor control whether this host issues
	// permit-to-use REST calls or defers grant authority elsewhere.
	Authoritative bool `yaml:"authoritative"`
	Supervisor    bool `yaml:"supervisor"`

	// Control-channel mode.
	ControlOnly      bool `yaml:"controlOnly"`
	DedicatedControl bool `yaml:"dedicatedControl"`
	VoiceOnControl   bool `yaml:"voiceOnControl"`

	// Response policy.
	AckTSBKRequests bool `yaml:"ackTSBKRequests"`
	NoStatusAck     bool `yaml:"noStatusAck"`
	NoMessageAck    bool `yaml:"noMessageAck"`
	WarnCRC         bool `yaml:"warnCRC"`

	// Policy gates (spec.md §4.7).
	UnitToUnitAvailCheck bool `yaml:"unitToUnitAvailCheck"`
	VerifyAff            bool `yaml:"verifyAff"`
	VerifyReg            bool `yaml:"verifyReg"`
	InhibitIllegal       bool `yaml:"inhibitIllegal"`

	// SNDCP support.
	SNDCPChGrant bool `yaml:"sndcpChGrant"`
	SNDCPSupport bool `yaml:"sndcpSupport"`

	// Control-channel scheduler overlay cadence.
	CtrlTimeDateAnn bool `yaml:"ctrlTimeDateAnn"`
	CtrlTSDUMBF     bool `yaml:"ctrlTSDUMBF"`

	// RF repeat and diagnostics.
	RepeatPDU   bool `yaml:"repeatPDU"`
	DumpPDUData bool `yaml:"dumpPDUData"`
	DumpTSBK    bool `yaml:"dumpTSBK"`

	// PatchSuperGroup enables the Motorola group-regroup (patch) opcode
	// family (SPEC_FULL.md SUPPLEMENTED FEATURES).
	PatchSuperGroup bool `yaml:"patchSuperGroup"`

	// AdjSiteUpdateInterval overrides the default 30s adjacent-site tick
	// cadence (spec.md §5 ADJ_SITE_TIMER_TIMEOUT) when nonzero.
	AdjSiteUpdateInterval time.Duration `yaml:"adjSiteUpdateInterval"`

	// DVMExtensions gates the DVM-specific OCS MFID opcodes (spec.md §9
	// Open Question (c)).
	DVMExtensions bool `yaml:"dvmExtensions"`

	// AckRspSwapHack gates the legacy IOSP_ACK_RSP srcId/dstId swap
	// (spec.md §9 Open Question (b)).
	AckRspSwapHack bool `yaml:"ackRspSwapHack"`
}

// Default returns a Config with the same conservative defaults the
// teacher's own config struct ships (everything permissive-but-safe off
// until explicitly enabled by the external loader).
func Default() Config {
	return Config{
		AckTSBKRequests: true,
	}
}
