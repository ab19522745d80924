// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenIndRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 245, 246, 300, 0xffff, 0x10000, 1 << 20}
	for _, size := range sizes {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		enc.EncodeLenInd(size)
		require.Equal(t, LenIndSize(size), buf.Len(), "size %d", size)

		dec := NewDecoder(&buf)
		got, err := dec.DecodeLenInd()
		require.NoError(t, err)
		assert.Equal(t, size, got)
	}
}

func TestLenIndNull(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.EncodeLenInd(-1)
	dec := NewDecoder(&buf)
	got, err := dec.DecodeLenInd()
	require.NoError(t, err)
	assert.Equal(t, -1, got)
}

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Int8(-12)
	enc.Int16(-1234)
	enc.Uint16(1234)
	enc.Int32(-123456)
	enc.Uint32(123456)
	enc.Int64(-123456789012)
	enc.Uint64(123456789012)
	enc.Float32(3.25)
	enc.Float64(6.5)
	enc.Bool(true)
	require.NoError(t, enc.Error())

	dec := NewDecoder(&buf)
	assert.Equal(t, int8(-12), dec.Int8())
	assert.Equal(t, int16(-1234), dec.Int16())
	assert.Equal(t, uint16(1234), dec.Uint16())
	assert.Equal(t, int32(-123456), dec.Int32())
	assert.Equal(t, uint32(123456), dec.Uint32())
	assert.Equal(t, int64(-123456789012), dec.Int64())
	assert.Equal(t, uint64(123456789012), dec.Uint64())
	assert.Equal(t, float32(3.25), dec.Float32())
	assert.Equal(t, 6.5, dec.Float64())
	assert.True(t, dec.Bool())
	require.NoError(t, dec.Error())
}

func TestFixedRoundTrip(t *testing.T) {
	values := []*big.Int{big.NewInt(0), big.NewInt(12345), big.NewInt(-12345), big.NewInt(-1)}
	for _, m := range values {
		bs, err := bigIntToFixed(m, 8)
		require.NoError(t, err)
		require.Len(t, bs, 8)

		var buf bytes.Buffer
		buf.Write(bs)
		dec := NewDecoder(&buf)
		got := dec.Fixed(8)
		assert.Equal(t, 0, m.Cmp(got), "fixed round trip for %v: got %v", m, got)
	}
}

func TestDecimal128RoundTrip(t *testing.T) {
	cases := []struct {
		m   *big.Int
		exp int
	}{
		{big.NewInt(0), 0},
		{big.NewInt(12345), -2},
		{big.NewInt(-987654321), 3},
	}
	for _, c := range cases {
		bs, err := bigIntToDecimal128(c.m, c.exp)
		require.NoError(t, err)
		require.Len(t, bs, decSize)

		m, exp, err := decimal128ToBigInt(bs)
		require.NoError(t, err)
		assert.Equal(t, c.exp, exp)
		assert.Equal(t, 0, c.m.Cmp(m), "mantissa round trip for %v", c.m)
	}
}

func TestCESU8RoundTrip(t *testing.T) {
	s := "plain ascii + supplementary \U0001F600"
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	n := enc.CESU8String(s)
	require.NoError(t, enc.Error())

	dec := NewDecoder(&buf)
	got, err := dec.CESU8Bytes(n)
	require.NoError(t, err)
	assert.Equal(t, s, string(got))
}
