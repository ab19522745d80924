// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

// Wire framing sizes (spec §3).
const (
	messageHeaderSize = 32
	segmentHeaderSize = 24
	partHeaderSize    = 16
	padding           = 8
)

func padBytes(size int) int {
	if r := size % padding; r != 0 {
		return padding - r
	}
	return 0
}

// messageHeader is the outermost 32-byte frame header. packetOptions
// bit 0 flags that the var-part (everything after this header) is
// LZ4-compressed (spec §4.3 compression gate).
type messageHeader struct {
	sessionID     int64
	packetCount   int32
	varPartLength uint32
	varPartSize   uint32
	noOfSegm      int16
	packetOptions int8
}

const packetOptionCompressed int8 = 0x01

func (h *messageHeader) String() string {
	return fmt.Sprintf("sessionID %d packetCount %d varPartLength %d varPartSize %d noOfSegm %d packetOptions %#x",
		h.sessionID, h.packetCount, h.varPartLength, h.varPartSize, h.noOfSegm, h.packetOptions)
}

func (h *messageHeader) encode(enc *encoding.Encoder) {
	enc.Int64(h.sessionID)
	enc.Int32(h.packetCount)
	enc.Uint32(h.varPartLength)
	enc.Uint32(h.varPartSize)
	enc.Int16(h.noOfSegm)
	enc.Int8(h.packetOptions)
	enc.Zeroes(9)
}

func (h *messageHeader) decode(dec *encoding.Decoder) error {
	h.sessionID = dec.Int64()
	h.packetCount = dec.Int32()
	h.varPartLength = dec.Uint32()
	h.varPartSize = dec.Uint32()
	h.noOfSegm = dec.Int16()
	h.packetOptions = dec.Int8()
	dec.Skip(9)
	return dec.Error()
}

// segmentHeader is the single Request/Reply segment header (spec §3;
// this core never emits multi-segment requests, per Non-goals).
type segmentHeader struct {
	segmentLength int32
	segmentOfs    int32
	noOfParts     int16
	segmentNo     int16
	segmentKind   SegmentKind
	messageType   MessageType
	commit        bool
	functionCode  FunctionCode
}

func (h *segmentHeader) String() string {
	return fmt.Sprintf("segmentLength %d segmentOfs %d noOfParts %d segmentNo %d segmentKind %d messageType %d commit %t functionCode %d",
		h.segmentLength, h.segmentOfs, h.noOfParts, h.segmentNo, h.segmentKind, h.messageType, h.commit, h.functionCode)
}

func (h *segmentHeader) encode(enc *encoding.Encoder) {
	enc.Int32(h.segmentLength)
	enc.Int32(h.segmentOfs)
	enc.Int16(h.noOfParts)
	enc.Int16(h.segmentNo)
	enc.Int8(int8(h.segmentKind))
	enc.Int8(int8(h.messageType))
	enc.Bool(h.commit)
	enc.Int8(0) // reserved
	enc.Int16(int16(h.functionCode))
	enc.Zeroes(6)
}

func (h *segmentHeader) decode(dec *encoding.Decoder) error {
	h.segmentLength = dec.Int32()
	h.segmentOfs = dec.Int32()
	h.noOfParts = dec.Int16()
	h.segmentNo = dec.Int16()
	h.segmentKind = SegmentKind(dec.Int8())
	h.messageType = MessageType(dec.Int8())
	h.commit = dec.Bool()
	dec.Skip(1) // reserved
	h.functionCode = FunctionCode(dec.Int16())
	dec.Skip(6)
	return dec.Error()
}

// partAttributes flags the last/next/first packet and cursor state of
// a Part (spec §3).
type partAttributes int8

const (
	paLastPacket      partAttributes = 0x01
	paNextPacket      partAttributes = 0x02
	paFirstPacket     partAttributes = 0x04
	paRowNotFound     partAttributes = 0x08
	paResultsetClosed partAttributes = 0x10
)

func (a partAttributes) LastPacket() bool      { return a&paLastPacket != 0 }
func (a partAttributes) RowNotFound() bool     { return a&paRowNotFound != 0 }
func (a partAttributes) ResultsetClosed() bool { return a&paResultsetClosed != 0 }
func (a partAttributes) NoMoreRows() bool      { return a.LastPacket() && a.RowNotFound() }

// partHeader precedes every Part body.
type partHeader struct {
	kind             PartKind
	attributes       partAttributes
	argumentCount    int16
	bigArgumentCount int32
	bufferLength     int32
	bufferSize       int32
}

func (h *partHeader) String() string {
	return fmt.Sprintf("kind %s attributes %#x argumentCount %d bufferLength %d bufferSize %d",
		h.kind, h.attributes, h.argumentCount, h.bufferLength, h.bufferSize)
}

const maxPartArgs = 1<<15 - 1

func (h *partHeader) setNumArg(n int) error {
	if n > maxPartArgs {
		return fmt.Errorf("part argument count %d exceeds maximum %d", n, maxPartArgs)
	}
	h.argumentCount = int16(n)
	h.bigArgumentCount = 0
	return nil
}

func (h *partHeader) numArg() int { return int(h.argumentCount) }

func (h *partHeader) encode(enc *encoding.Encoder) {
	enc.Int8(int8(h.kind))
	enc.Int8(int8(h.attributes))
	enc.Int16(h.argumentCount)
	enc.Int32(h.bigArgumentCount)
	enc.Int32(h.bufferLength)
	enc.Int32(h.bufferSize)
}

func (h *partHeader) decode(dec *encoding.Decoder) error {
	h.kind = PartKind(dec.Int8())
	h.attributes = partAttributes(dec.Int8())
	h.argumentCount = dec.Int16()
	h.bigArgumentCount = dec.Int32()
	h.bufferLength = dec.Int32()
	h.bufferSize = dec.Int32()
	return dec.Error()
}
