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

package tsbk

import "github.com/dvmproject/p25core/internal/p25/p25const"

// TSBK is a decoded trunking signalling block. Only the fields relevant
// to the opcode in question are populated; unused fields are zero.
type TSBK struct {
	LCO       byte
	LastBlock bool
	Protected bool
	MFID      byte
	Opcode    byte // opcode within the MFID's space (== LCO for standard)

	Emergency bool
	Encrypted bool
	Priority  byte

	SrcID     uint32
	DstID     uint32
	ChannelNo uint32
	ChannelID byte

	ServiceType byte
	Reason      byte // deny/queue reason code

	// SiteFields carries the broadcast-style fields (RFSS/NET/ADJ status,
	// SCCB, IDEN_UP) in a compact generic form; see broadcast.go helpers.
	Site SiteFields

	// Raw holds the undecoded 12-byte block for opcodes this codec does
	// not model explicitly, so unknown traffic can still be logged or
	// passed through (spec.md §4.3 "raw access").
	Raw [12]byte
}

// SiteFields groups the fields used by broadcast-style opcodes.
type SiteFields struct {
	NetID, SysID, RFSSID, SiteID uint32
	ChannelNo                    uint32
	ChannelID                    byte
	ServiceClass                 byte
	LRA                          byte
	BaseFreqHz                   uint32
	SpacingHz                    uint32
	TxOffsetMHz                  int32
	UpdateSeconds                uint32
}

// NormalizeMFID implements the explicit MFID-remap hook called out in
// spec.md §9 DESIGN NOTES: standard opcodes always dispatch under
// MFIDStandard; Motorola's own opcode space is kept distinct by MFID so no
// numeric collision with the standard table occurs.
func NormalizeMFID(mfid, lco byte) (byte, byte) {
	return mfid, lco
}

// Codec decodes and encodes TSBK blocks against a fixed policy for
// tolerating missing CRCs ("no CRC defined" sentinel, spec.md §8).
type Codec struct {
	WarnCRC bool
}

// NewCodec returns a Codec with the given warnCRC policy.
func NewCodec(warnCRC bool) *Codec {
	return &Codec{WarnCRC: warnCRC}
}

// DecodeFEC Trellis-decodes a 25-byte FEC frame and dispatches the
// resulting block to its opcode-specific decoder.
func (c *Codec) DecodeFEC(fec25 []byte) (TSBK, error) {
	raw, err := decodeFEC(fec25, c.WarnCRC)
	if err != nil {
		return TSBK{}, err
	}
	return c.decodeRawBlock(raw)
}

func (c *Codec) decodeRawBlock(raw rawBlock) (TSBK, error) {
	mfid, lco := NormalizeMFID(raw.mfid, raw.lco)
	t := TSBK{
		LCO:       raw.lco,
		LastBlock: raw.lastBlock,
		Protected: raw.protected,
		MFID:      raw.mfid,
		Opcode:    lco,
	}
	r := newPayloadReader(raw.payload)

	decoder, ok := decoders[opcodeKey{mfid, lco}]
	if !ok {
		copy(t.Raw[:], raw.encodeRaw())
		return t, nil
	}
	decoder(r, &t)
	return t, nil
}

// EncodeFEC encodes t into a 25-byte Trellis 1/2 FEC frame.
func (c *Codec) EncodeFEC(t TSBK) []byte {
	raw := rawBlock{
		lco:       t.LCO,
		lastBlock: t.LastBlock,
		protected: t.Protected,
		mfid:      t.MFID,
	}
	w := &payloadWriter{}
	if encoder, ok := encoders[opcodeKey{t.MFID, t.Opcode}]; ok {
		encoder(w, t)
		raw.payload = w.bytes()
	} else {
		// Unmodeled opcode: pass the originally captured raw block
		// straight through, re-deriving only the CRC.
		copy(raw.payload[:], t.Raw[2:10])
	}
	return encodeFEC(raw)
}

type opcodeKey struct {
	mfid byte
	lco  byte
}

type decodeFn func(*payloadReader, *TSBK)
type encodeFn func(*payloadWriter, TSBK)

var decoders map[opcodeKey]decodeFn
var encoders map[opcodeKey]encodeFn

func init() {
	decoders = make(map[opcodeKey]decodeFn)
	encoders = make(map[opcodeKey]encodeFn)
	registerVoiceGrantOpcodes()
	registerRegistrationOpcodes()
	registerBroadcastOpcodes()
	registerResponseOpcodes()
	registerMotorolaOpcodes()
}

func std(lco byte) opcodeKey { return opcodeKey{p25const.MFIDStandard, lco} }
func mot(lco byte) opcodeKey { return opcodeKey{p25const.MFIDMotorola, lco} }
