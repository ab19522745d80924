// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import "fmt"

// Length indicator byte values for the variable-length integer
// encoding (LENIND) used ahead of CHAR/BINARY/LOB field bodies.
const (
	lenIndNull  = 255 // NULL / empty marker
	len2ByteInd = 246 // length follows as a 2-byte little-endian uint16
	len4ByteInd = 247 // length follows as a 4-byte little-endian uint32
	maxLen1Byte = 245 // lengths <= this are encoded directly in the indicator byte
)

// EncodeLenInd writes size using the minimal LENIND encoding; a
// negative size writes the NULL indicator.
func (e *Encoder) EncodeLenInd(size int) {
	switch {
	case size < 0:
		e.Byte(lenIndNull)
	case size <= maxLen1Byte:
		e.Byte(byte(size))
	case size <= 0xffff:
		e.Byte(len2ByteInd)
		e.Uint16(uint16(size))
	default:
		e.Byte(len4ByteInd)
		e.Uint32(uint32(size))
	}
}

// LenIndSize returns the wire size in bytes of the LENIND encoding of
// size (size < 0 denotes NULL).
func LenIndSize(size int) int {
	switch {
	case size < 0:
		return 1
	case size <= maxLen1Byte:
		return 1
	case size <= 0xffff:
		return 3
	default:
		return 5
	}
}

// DecodeLenInd reads a LENIND value. A negative return value means
// NULL.
func (d *Decoder) DecodeLenInd() (int, error) {
	b := d.Byte()
	switch {
	case b == lenIndNull:
		return -1, nil
	case b <= maxLen1Byte:
		return int(b), nil
	case b == len2ByteInd:
		return int(d.Uint16()), nil
	case b == len4ByteInd:
		return int(d.Uint32()), nil
	default:
		return 0, fmt.Errorf("encoding: invalid length indicator %d", b)
	}
}
