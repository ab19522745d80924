// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/sap-hdb-core/hdb/internal/protocol/encoding"

// lobOptions flags a LOB descriptor's wire state (spec §4.9): whether
// it carries a locator the client can page through with ReadLob, and
// whether the value is NULL / fully inline already.
type lobOptions int8

const (
	loNullIndicator lobOptions = 0x01
	loDataIncluded  lobOptions = 0x02
	loLastData      lobOptions = 0x04
)

func (o lobOptions) isNull() bool      { return o&loNullIndicator != 0 }
func (o lobOptions) isLastData() bool  { return o&loLastData != 0 }
func (o lobOptions) dataIncluded() bool { return o&loDataIncluded != 0 }

// lobDescr is a column/parameter value's LOB descriptor as it appears
// inline in a resultset row or OutputParameters Part: a locator the
// client uses for subsequent ReadLob requests, the total declared
// length, and whatever chunk the server inlined eagerly (spec §4.9
// "LOB locator back-references").
type lobDescr struct {
	typeCode  TypeCode
	options   lobOptions
	charLen   int64
	byteLen   int64
	locatorID uint64
	b         []byte
}

// LobDescriptor is the public shape of an inline LOB reference found
// in a decoded result-set row or OutputParameters value: enough to
// drive ReadLobChunk without exposing the unexported wire struct.
type LobDescriptor interface {
	TypeCode() TypeCode
	LocatorID() uint64
	IsNull() bool
	CharLength() int64
	ByteLength() int64
	// InlineData is whatever prefix the server eagerly inlined
	// alongside the descriptor, already CESU-8-decoded for
	// character LOBs.
	InlineData() []byte
}

func (d *lobDescr) TypeCode() TypeCode  { return d.typeCode }
func (d *lobDescr) LocatorID() uint64   { return d.locatorID }
func (d *lobDescr) IsNull() bool        { return d.options.isNull() }
func (d *lobDescr) CharLength() int64   { return d.charLen }
func (d *lobDescr) ByteLength() int64   { return d.byteLen }
func (d *lobDescr) InlineData() []byte  { return d.b }

func decodeLobDescr(dec *encoding.Decoder, tc TypeCode) (*lobDescr, error) {
	d := &lobDescr{typeCode: tc}
	d.options = lobOptions(dec.Int8())
	if d.options.isNull() {
		return d, dec.Error()
	}
	dec.Skip(2) // filler
	d.charLen = dec.Int64()
	d.byteLen = dec.Int64()
	d.locatorID = dec.Uint64()
	chunkLen, err := dec.DecodeLenInd()
	if err != nil {
		return nil, err
	}
	if chunkLen > 0 {
		if tc == TcNClob || tc == TcText {
			b, cerr := dec.CESU8Bytes(chunkLen)
			if cerr != nil {
				return nil, cerr
			}
			d.b = b
		} else {
			d.b = dec.RawBytes(chunkLen)
		}
	}
	return d, dec.Error()
}

// LobParam is the bind value for a BLOB/CLOB/NCLOB/TEXT/BINTEXT IN
// parameter (spec §4.7 "LOB write protocol"). Data is the portion
// sent inline with the Execute request; Reserve marks it as only the
// first chunk of a larger value, in which case the server returns a
// locator in its WriteLobReply and the caller streams the remainder
// with WriteLobChunk.
type LobParam struct {
	Data    []byte
	Reserve bool
}

func encodeLobParam(enc *encoding.Encoder, tc TypeCode, lp *LobParam) error {
	opts := lobOptions(0)
	if len(lp.Data) > 0 {
		opts |= loDataIncluded
	}
	if !lp.Reserve {
		opts |= loLastData
	}
	enc.Int8(int8(opts))
	enc.Int16(0) // filler
	if tc == TcNClob || tc == TcText {
		enc.EncodeLenInd(len(lp.Data) * 3) // worst-case CESU-8 expansion
		enc.CESU8String(string(lp.Data))
	} else {
		enc.EncodeLenInd(len(lp.Data))
		enc.Bytes(lp.Data)
	}
	return enc.Error()
}

// readLobRequest asks the server for the next chunk of a LOB value
// addressed by locator, starting at byte/char offset ofs (spec §4.9).
type readLobRequest struct {
	locatorID uint64
	ofs       int64
	length    int32
}

func (readLobRequest) kind() PartKind { return PkReadLobRequest }
func (r readLobRequest) numArg() int  { return 1 }
func (r readLobRequest) size() int    { return 8 + 8 + 4 + 4 }
func (r readLobRequest) encode(enc *encoding.Encoder) error {
	enc.Uint64(r.locatorID)
	enc.Int64(r.ofs)
	enc.Int32(r.length)
	enc.Int32(0) // filler
	return enc.Error()
}

// readLobReply carries the requested chunk, or an error if the
// locator has since been invalidated (spec §4.9).
type readLobReply struct {
	locatorID uint64
	options   lobOptions
	b         []byte
}

func (*readLobReply) kind() PartKind { return PkReadLobReply }
func (r *readLobReply) decode(dec *encoding.Decoder, ph *partHeader) error {
	r.locatorID = dec.Uint64()
	r.options = lobOptions(dec.Int8())
	if r.options.isNull() {
		return dec.Error()
	}
	chunkLen, err := dec.DecodeLenInd()
	if err != nil {
		return err
	}
	dec.Skip(padBytes(int(chunkLen)))
	r.b = dec.RawBytes(chunkLen)
	return dec.Error()
}

// writeLobRequest uploads the next chunk of an input LOB parameter
// (spec §4.9 "WRITELOB chunked upload"): the reserved locator plus a
// "has more" flag so the server knows whether to expect another
// roundtrip.
type writeLobRequest struct {
	locatorID uint64
	b         []byte
	last      bool
}

func (writeLobRequest) kind() PartKind { return PkWriteLobRequest }
func (r writeLobRequest) numArg() int  { return 1 }
func (r writeLobRequest) size() int    { return 8 + 1 + 4 + len(r.b) }
func (r writeLobRequest) encode(enc *encoding.Encoder) error {
	enc.Uint64(r.locatorID)
	opts := lobOptions(loDataIncluded)
	if r.last {
		opts |= loLastData
	}
	enc.Int8(int8(opts))
	enc.Int32(int32(len(r.b)))
	enc.Bytes(r.b)
	return enc.Error()
}

// writeLobReply reports the locators the server still expects more
// data for (a WriteLob request can be rejected if the locator is
// unknown or already closed).
type writeLobReply struct {
	locatorIDs []uint64
}

func (*writeLobReply) kind() PartKind { return PkWriteLobReply }
func (r *writeLobReply) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = dec.Uint64()
	}
	r.locatorIDs = ids
	return dec.Error()
}
