// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package cesu8

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRuneLen(t *testing.T) {
	b := make([]byte, CESUMax)
	for i := rune(0); i <= utf8.MaxRune; i++ {
		n := EncodeRune(b, i)
		assert.Equal(t, RuneLen(i), n, "rune length mismatch for %x", i)
	}
}

type codePoint struct {
	cp   rune
	cesu []byte
}

// reference vectors, see http://en.wikipedia.org/wiki/CESU-8
var codePoints = []codePoint{
	{0x45, []byte{0x45}},
	{0x205, []byte{0xc8, 0x85}},
	{0x10400, []byte{0xed, 0xa0, 0x81, 0xed, 0xb0, 0x80}},
}

func TestCodePointRoundTrip(t *testing.T) {
	b := make([]byte, CESUMax)
	for _, d := range codePoints {
		n1 := EncodeRune(b, d.cp)
		assert.True(t, bytes.Equal(b[:n1], d.cesu), "encode %x: got % x want % x", d.cp, b[:n1], d.cesu)

		cp, n2 := DecodeRune(b[:n1])
		assert.Equal(t, d.cp, cp)
		assert.Equal(t, n1, n2)
	}
}

var testStrings = []string{
	"",
	"abcd",
	"hello, world",
	"\x80\x80\x80\x80",
	"supplementary: \U0001F600\U0001F601",
}

func TestStringSize(t *testing.T) {
	b := make([]byte, CESUMax)
	for i, s := range testStrings {
		want := 0
		for _, r := range s {
			want += utf8.EncodeRune(b, r)
			if r >= 0xFFFF {
				want += 2
			}
		}
		assert.Equal(t, want, StringSize(s), "case %d StringSize", i)
		assert.Equal(t, want, Size([]byte(s)), "case %d Size", i)

		got := 0
		for _, r := range s {
			got += EncodeRune(b, r)
		}
		assert.Equal(t, want, got, "case %d encoder total", i)
	}
}

func TestFullRune(t *testing.T) {
	full := make([]byte, CESUMax)
	n := EncodeRune(full, 0x10400)
	assert.True(t, FullRune(full[:n]))
	assert.False(t, FullRune(full[:n-1]))
	assert.False(t, FullRune(full[:3])) // only the high surrogate
}
