// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"golang.org/x/text/transform"

	"github.com/sap-hdb-core/hdb/unicode/cesu8"
)

const readScratchSize = 4096

// Decoder decodes HANA wire primitives from an io.Reader.
//
// A Decoder never stops reading on a conversion error (a malformed
// CESU-8 string, say): it records the error and returns the raw bytes
// so the caller can finish draining the frame and raise the error
// lazily, only if and when the value is actually inspected (spec
// §4.1, §7).
type Decoder struct {
	rd  io.Reader
	err error // fatal read error, never a conversion error
	b   [readScratchSize]byte
	tr  transform.Transformer
	cnt int
}

// NewDecoder returns a Decoder reading from rd.
func NewDecoder(rd io.Reader) *Decoder {
	return &Decoder{rd: rd, tr: cesu8.Cesu8ToUtf8Transformer}
}

// ResetCnt resets the byte-read counter the framer uses to skip the
// unread rest of an Error Part.
func (d *Decoder) ResetCnt() { d.cnt = 0 }

// Cnt returns the number of bytes read since the last ResetCnt.
func (d *Decoder) Cnt() int { return d.cnt }

// Error returns the first fatal (non-recoverable) read error.
func (d *Decoder) Error() error { return d.err }

// ResetError returns and clears the fatal read error.
func (d *Decoder) ResetError() error {
	err := d.err
	d.err = nil
	return err
}

func (d *Decoder) readFull(buf []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err := io.ReadFull(d.rd, buf)
	d.cnt += n
	if err != nil {
		d.err = err
	}
	return n, err
}

// Skip discards cnt bytes (Part/segment padding, unknown Part bodies).
func (d *Decoder) Skip(cnt int) {
	for n := 0; n < cnt; {
		to := cnt - n
		if to > readScratchSize {
			to = readScratchSize
		}
		m, err := d.readFull(d.b[:to])
		n += m
		if err != nil {
			return
		}
	}
}

// Byte reads a byte.
func (d *Decoder) Byte() byte {
	if _, err := d.readFull(d.b[:1]); err != nil {
		return 0
	}
	return d.b[0]
}

// Bytes reads len(p) bytes into p.
func (d *Decoder) Bytes(p []byte) { d.readFull(p) }

// Bool reads a boolean byte.
func (d *Decoder) Bool() bool { return d.Byte() != 0 }

// Int8 reads an int8.
func (d *Decoder) Int8() int8 { return int8(d.Byte()) }

// Int16 reads a little-endian int16.
func (d *Decoder) Int16() int16 { return int16(d.Uint16()) }

// Uint16 reads a little-endian uint16.
func (d *Decoder) Uint16() uint16 {
	if _, err := d.readFull(d.b[:2]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(d.b[:2])
}

// Uint16ByteOrder reads a uint16 in the given byte order.
func (d *Decoder) Uint16ByteOrder(order binary.ByteOrder) uint16 {
	if _, err := d.readFull(d.b[:2]); err != nil {
		return 0
	}
	return order.Uint16(d.b[:2])
}

// Int32 reads a little-endian int32.
func (d *Decoder) Int32() int32 { return int32(d.Uint32()) }

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32() uint32 {
	if _, err := d.readFull(d.b[:4]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(d.b[:4])
}

// Uint32ByteOrder reads a uint32 in the given byte order.
func (d *Decoder) Uint32ByteOrder(order binary.ByteOrder) uint32 {
	if _, err := d.readFull(d.b[:4]); err != nil {
		return 0
	}
	return order.Uint32(d.b[:4])
}

// Int64 reads a little-endian int64.
func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }

// Uint64 reads a little-endian uint64.
func (d *Decoder) Uint64() uint64 {
	if _, err := d.readFull(d.b[:8]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(d.b[:8])
}

// Float32 reads a little-endian IEEE-754 float32.
func (d *Decoder) Float32() float32 {
	if _, err := d.readFull(d.b[:4]); err != nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(d.b[:4]))
}

// Float64 reads a little-endian IEEE-754 float64.
func (d *Decoder) Float64() float64 {
	if _, err := d.readFull(d.b[:8]); err != nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(d.b[:8]))
}

// Fixed reads a size-byte two's-complement fixed-point integer
// (DECIMAL fixed-size encodings: FIXED8/FIXED12/FIXED16).
func (d *Decoder) Fixed(size int) *big.Int {
	bs := make([]byte, size)
	if _, err := d.readFull(bs); err != nil {
		return nil
	}
	return fixedToBigInt(bs)
}

// Decimal reads a 16-byte IEEE-754-2008 decimal128 value and returns
// its mantissa and decimal exponent, or (nil, 0, nil) for NULL.
func (d *Decoder) Decimal() (*big.Int, int, error) {
	bs := make([]byte, decSize)
	if _, err := d.readFull(bs); err != nil {
		return nil, 0, nil
	}
	return decimal128ToBigInt(bs)
}

// CESU8Bytes reads a size-byte CESU-8 string and transcodes it to
// UTF-8. A conversion failure does not stop the decode: it returns the
// raw, untranscoded bytes alongside the error so the frame can still
// be fully drained (spec §4.1).
func (d *Decoder) CESU8Bytes(size int) ([]byte, error) {
	p := make([]byte, size)
	if _, err := d.readFull(p); err != nil {
		return nil, nil
	}
	r, _, err := transform.Bytes(d.tr, p)
	if err != nil {
		return p, err
	}
	return r, nil
}

// RawBytes reads size raw bytes into a newly allocated slice.
func (d *Decoder) RawBytes(size int) []byte {
	p := make([]byte, size)
	d.Bytes(p)
	return p
}
