// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

type fakeLobDescriptor struct {
	typeCode p.TypeCode
	locator  uint64
	isNull   bool
	data     []byte
}

func (d *fakeLobDescriptor) TypeCode() p.TypeCode  { return d.typeCode }
func (d *fakeLobDescriptor) LocatorID() uint64     { return d.locator }
func (d *fakeLobDescriptor) IsNull() bool          { return d.isNull }
func (d *fakeLobDescriptor) CharLength() int64     { return int64(len(d.data)) }
func (d *fakeLobDescriptor) ByteLength() int64     { return int64(len(d.data)) }
func (d *fakeLobDescriptor) InlineData() []byte    { return d.data }

func TestLobReadAllInline(t *testing.T) {
	d := &fakeLobDescriptor{typeCode: p.TcNClob, locator: 1, data: []byte("hello world")}
	l := newLob(&Connection{lobReadSize: DefaultLobReadSize}, d)

	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestLobNull(t *testing.T) {
	d := &fakeLobDescriptor{typeCode: p.TcBlob, locator: 0, isNull: true}
	l := newLob(nil, d)

	assert.True(t, l.IsNull())
	buf := make([]byte, 10)
	n, err := l.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestNewLobWriterSmallPayloadNeverReserves(t *testing.T) {
	w, err := NewLobWriter(bytes.NewReader([]byte("small")), 4096)
	require.NoError(t, err)

	param := w.Param()
	assert.Equal(t, []byte("small"), param.Data)
	assert.False(t, param.Reserve)
	assert.True(t, w.atEOF())
}

func TestNewLobWriterLargePayloadReserves(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 100)
	w, err := NewLobWriter(bytes.NewReader(payload), 32)
	require.NoError(t, err)

	param := w.Param()
	assert.Len(t, param.Data, 32)
	assert.True(t, param.Reserve)
	assert.False(t, w.atEOF())
}
