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

// Package p25const collects the wire-format constants shared across the
// codec packages: frame lengths, DUIDs, PDU format/SAP/ACK codes, LC/TSBK
// opcodes, and the timer values named in spec.md §5. Grounded on
// original_source/p25/P25Defines.h.
package p25const

// Frame lengths, in bytes, of each on-air DUID payload.
const (
	HDUFrameLengthBytes   = 99
	TDUFrameLengthBytes   = 18
	LDUFrameLengthBytes   = 216
	TSDUFrameLengthBytes  = 45
	TDULCFrameLengthBytes = 54

	LDULCLengthBytes     = 18
	TDULCFECLengthBytes  = 36
	TDULCLengthBytes     = 18
	TSBKFECLengthBytes   = 25
	TSBKFECLengthBits    = TSBKFECLengthBytes*8 - 4
	TSBKLengthBytes      = 12
)

// Status-symbol plane.
const (
	SS0Start    = 70
	SS1Start    = 71
	SSIncrement = 72
)

// DUID identifies the on-air frame type carried after the NID.
type DUID uint8

const (
	DUIDHDU   DUID = 0x00
	DUIDTDU   DUID = 0x03
	DUIDLDU1  DUID = 0x05
	DUIDTSDU  DUID = 0x07
	DUIDLDU2  DUID = 0x0A
	DUIDPDU   DUID = 0x0C
	DUIDTDULC DUID = 0x0F
)

func (d DUID) String() string {
	switch d {
	case DUIDHDU:
		return "HDU"
	case DUIDTDU:
		return "TDU"
	case DUIDLDU1:
		return "LDU1"
	case DUIDTSDU:
		return "TSDU"
	case DUIDLDU2:
		return "LDU2"
	case DUIDPDU:
		return "PDU"
	case DUIDTDULC:
		return "TDULC"
	default:
		return "UNKNOWN"
	}
}

// MaxNIDErrs is the Hamming-distance tolerance for NID matching: a
// candidate DUID pattern is accepted if the bit-error count is strictly
// less than this value.
const MaxNIDErrs = 7

// PDU data header format values.
const (
	PDUFmtRSP         = 0x03
	PDUFmtUnconfirmed = 0x15
	PDUFmtConfirmed   = 0x16
	PDUFmtAMBT        = 0x17
)

// PDU SAP (service access point) values.
const (
	PDUSAPUserData    = 0x00
	PDUSAPEncUserData = 0x01
	PDUSAPPacketData  = 0x04
	PDUSAPARP         = 0x05
	PDUSAPSNDCPCtrl   = 0x06
	PDUSAPExtAddr     = 0x1F
	PDUSAPReg         = 0x20
	PDUSAPUnencKMM    = 0x28
	PDUSAPEncKMM      = 0x29
	PDUSAPTrunkCtrl   = 0x3D
)

// PDU ACK class/type values.
const (
	PDUAckClassACK      = 0x00
	PDUAckClassNACK     = 0x01
	PDUAckClassACKRetry = 0x02

	PDUAckTypeACK               = 0x01
	PDUAckTypeNACKIllegal       = 0x00
	PDUAckTypeNACKPacketCRC     = 0x01
	PDUAckTypeNACKMemoryFull    = 0x02
	PDUAckTypeNACKSeq           = 0x03
	PDUAckTypeNACKUndeliverable = 0x04
	PDUAckTypeNACKOutOfSeq      = 0x05
	PDUAckTypeNACKInvalidUser   = 0x06
)

// Link control opcodes (TDULC and voice LC).
const (
	LCGroup         = 0x00
	LCGroupUpdt     = 0x02
	LCPrivate       = 0x03
	LCUUAnsReq      = 0x05
	LCTelIntVchUser = 0x06
	LCTelIntAnsRqst = 0x07
	LCCallTerm      = 0x0F
	LCIdenUp        = 0x18
	LCSysSrvBcast   = 0x20
	LCAdjStsBcast   = 0x22
	LCRFSSStsBcast  = 0x23
	LCNetStsBcast   = 0x24
	LCConvFallback  = 0x0A
)

// Service option bits.
const (
	SvcOptEmergency = 0x80
	SvcOptEncrypted = 0x40
)

// MFID (manufacturer ID) values.
const (
	MFIDStandard  = 0x00
	MFIDMotorola  = 0x90
)

// TSBK opcodes, standard MFID.
const (
	TSBKIOSPGrpVch       = 0x00
	TSBKIOSPUUVch        = 0x04
	TSBKIOSPUUAns        = 0x05
	TSBKIOSPTeleIntDial  = 0x08
	TSBKIOSPTeleIntAns   = 0x0A
	TSBKIOSPStsUpdt      = 0x18
	TSBKIOSPStsQ         = 0x1A
	TSBKIOSPMsgUpdt      = 0x1C
	TSBKIOSPCallAlrt     = 0x1F
	TSBKIOSPAckRsp       = 0x20
	TSBKIOSPExtFnct      = 0x24
	TSBKIOSPGrpAff       = 0x28
	TSBKIOSPURegistr     = 0x2C

	TSBKISPTeleIntPSTNReq = 0x09
	TSBKISPSNDCPChReq     = 0x12
	TSBKISPStsQRsp        = 0x19
	TSBKISPCanSrvReq      = 0x23
	TSBKISPEmergAlrmReq   = 0x27
	TSBKISPGrpAffQRsp     = 0x29
	TSBKISPUDeregReq      = 0x2B
	TSBKISPLocRegReq      = 0x2D

	TSBKOSPGrpVchGrantUpd = 0x02
	TSBKOSPUUVchGrantUpd  = 0x06
	TSBKOSPSNDCPChGnt     = 0x14
	TSBKOSPSNDCPChAnn     = 0x16
	TSBKOSPDenyRsp        = 0x27
	TSBKOSPSccbExp        = 0x29
	TSBKOSPGrpAffQ        = 0x2A
	TSBKOSPLocRegRsp      = 0x2B
	TSBKOSPURegCmd        = 0x2D
	TSBKOSPUDeregAck      = 0x2F
	TSBKOSPQueRsp         = 0x33
	TSBKOSPIdenUpVU       = 0x34
	TSBKOSPSysSrvBcast    = 0x38
	TSBKOSPSccb           = 0x39
	TSBKOSPRFSSStsBcast   = 0x3A
	TSBKOSPNetStsBcast    = 0x3B
	TSBKOSPAdjStsBcast    = 0x3C
	TSBKOSPIdenUp         = 0x3D
	TSBKOSPSyncBcast      = 0x3E
	TSBKOSPTimeDateAnn    = 0x3F
)

// Motorola (MFID 0x90) TSBK opcodes.
const (
	TSBKOSPMotGrgAdd      = 0x00
	TSBKOSPMotGrgDel      = 0x01
	TSBKOSPMotGrgVchGrant = 0x02
	TSBKOSPMotGrgVchUpd   = 0x03
	TSBKOSPMotCCBsi       = 0x0B
	TSBKOSPMotPshCch      = 0x0E
)

// Deny/queue response reason codes (spec.md §7).
const (
	ReasonReqUnitNotValid   = 0x01
	ReasonReqUnitNotAuth    = 0x02
	ReasonTgtUnitNotValid   = 0x03
	ReasonTgtUnitNotAuth    = 0x04
	ReasonTgtUnitRefused    = 0x05
	ReasonTgtGroupNotValid  = 0x06
	ReasonTgtGroupNotAuth   = 0x07
	ReasonSiteAccessDenial  = 0x08
	ReasonPTTCollide        = 0x09
	ReasonPTTBonk           = 0x0A
	ReasonSysUnsupportedSvc = 0x0B
	ReasonNoNetRsrcAvail    = 0x0C
	ReasonNoRFRsrcAvail     = 0x0D
	ReasonSvcInUse          = 0x0E

	ReasonReqActiveService   = 0x40
	ReasonTgtActiveService   = 0x41
	ReasonTgtUnitQueued      = 0x42
	ReasonChnResourceNotAvail = 0x43
)

// Timer values (spec.md §5).
const (
	GrantTimerTimeoutSeconds    = 15
	AdjSiteTimerTimeoutSeconds  = 30
	AdjSiteUpdateCnt            = 5
	ConvRegWaitTimeoutMillis    = 750
	MaxPDURetryCnt              = 2
	DataCallCollTimeoutSeconds  = 60
)
