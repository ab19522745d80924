// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package encoding implements the little-endian, CESU-8-aware wire
// primitives shared by every Part encoder/decoder. It is I/O-agnostic:
// it reads and writes through io.Reader/io.Writer and never blocks on
// anything but those, so the same code serves both the blocking and
// the context-suspending connection variants built on top of it.
package encoding

import (
	"encoding/binary"
	"io"
	"math"

	"golang.org/x/text/transform"

	"github.com/sap-hdb-core/hdb/unicode/cesu8"
)

const writeScratchSize = 4096

// Encoder encodes HANA wire primitives onto an io.Writer.
type Encoder struct {
	wr  io.Writer
	err error
	b   [writeScratchSize]byte
	tr  transform.Transformer
}

// NewEncoder returns an Encoder writing to wr.
func NewEncoder(wr io.Writer) *Encoder {
	return &Encoder{wr: wr, tr: cesu8.Utf8ToCesu8Transformer}
}

// Error returns the first write error encountered, if any.
func (e *Encoder) Error() error { return e.err }

// Zeroes writes cnt zero bytes (part/body padding).
func (e *Encoder) Zeroes(cnt int) {
	if e.err != nil {
		return
	}
	zero := e.b[:]
	for i := range zero {
		zero[i] = 0
	}
	for cnt > 0 {
		n := cnt
		if n > len(zero) {
			n = len(zero)
		}
		if _, err := e.wr.Write(zero[:n]); err != nil {
			e.err = err
			return
		}
		cnt -= n
	}
}

// Bytes writes p verbatim.
func (e *Encoder) Bytes(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.wr.Write(p); err != nil {
		e.err = err
	}
}

// Byte writes a single byte.
func (e *Encoder) Byte(b byte) {
	e.b[0] = b
	e.Bytes(e.b[:1])
}

// Bool writes a boolean as a single byte (0/1).
func (e *Encoder) Bool(v bool) {
	if v {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
}

// Int8 writes an int8.
func (e *Encoder) Int8(i int8) { e.Byte(byte(i)) }

// Int16 writes a little-endian int16.
func (e *Encoder) Int16(i int16) { e.Uint16(uint16(i)) }

// Uint16 writes a little-endian uint16.
func (e *Encoder) Uint16(i uint16) {
	binary.LittleEndian.PutUint16(e.b[:2], i)
	e.Bytes(e.b[:2])
}

// Uint16ByteOrder writes a uint16 in the given byte order.
func (e *Encoder) Uint16ByteOrder(i uint16, order binary.ByteOrder) {
	order.PutUint16(e.b[:2], i)
	e.Bytes(e.b[:2])
}

// Int32 writes a little-endian int32.
func (e *Encoder) Int32(i int32) { e.Uint32(uint32(i)) }

// Uint32 writes a little-endian uint32.
func (e *Encoder) Uint32(i uint32) {
	binary.LittleEndian.PutUint32(e.b[:4], i)
	e.Bytes(e.b[:4])
}

// Uint32ByteOrder writes a uint32 in the given byte order.
func (e *Encoder) Uint32ByteOrder(i uint32, order binary.ByteOrder) {
	order.PutUint32(e.b[:4], i)
	e.Bytes(e.b[:4])
}

// Int64 writes a little-endian int64.
func (e *Encoder) Int64(i int64) { e.Uint64(uint64(i)) }

// Uint64 writes a little-endian uint64.
func (e *Encoder) Uint64(i uint64) {
	binary.LittleEndian.PutUint64(e.b[:8], i)
	e.Bytes(e.b[:8])
}

// Float32 writes a little-endian IEEE-754 float32.
func (e *Encoder) Float32(f float32) { e.Uint32(math.Float32bits(f)) }

// Float64 writes a little-endian IEEE-754 float64.
func (e *Encoder) Float64(f float64) { e.Uint64(math.Float64bits(f)) }

// String writes s as raw bytes (ASCII-only fields such as SQL state).
func (e *Encoder) String(s string) { e.Bytes([]byte(s)) }

// CESU8Bytes transcodes the UTF-8 input p to CESU-8 and writes it,
// returning the number of CESU-8 bytes written.
func (e *Encoder) CESU8Bytes(p []byte) int {
	if e.err != nil {
		return 0
	}
	e.tr.Reset()
	cnt := 0
	for i := 0; i < len(p); {
		m, n, err := e.tr.Transform(e.b[:], p[i:], true)
		if err != nil && err != transform.ErrShortDst {
			e.err = err
			return cnt
		}
		if m == 0 {
			e.err = transform.ErrShortDst
			return cnt
		}
		if _, werr := e.wr.Write(e.b[:m]); werr != nil {
			e.err = werr
			return cnt
		}
		cnt += m
		i += n
	}
	return cnt
}

// CESU8String is CESU8Bytes for a string argument.
func (e *Encoder) CESU8String(s string) int { return e.CESU8Bytes([]byte(s)) }
