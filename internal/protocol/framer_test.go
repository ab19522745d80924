// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf, 42)

	sid := statementID(0xdeadbeef)
	fs := fetchSize(32)
	require.NoError(t, w.write(MtExecuteDirect, []partWriter{sid, fs}))

	r := newReader(&buf)
	var gotSid statementID
	var gotFs fetchSize
	info, errs, err := r.read([]sink{
		{kind: PkStatementID, pr: &gotSid},
		{kind: PkFetchSize, pr: &gotFs},
	})
	require.NoError(t, err)
	assert.Nil(t, errs)
	require.NotNil(t, info)
	assert.Equal(t, SkRequest, info.segmentKind)
	assert.Equal(t, statementID(0xdeadbeef), gotSid)
	assert.Equal(t, fetchSize(32), gotFs)
}

func TestReaderSkipsUnrequestedPart(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf, 1)
	require.NoError(t, w.write(MtExecuteDirect, []partWriter{statementID(7), fetchSize(16)}))

	r := newReader(&buf)
	var gotFs fetchSize
	_, errs, err := r.read([]sink{{kind: PkFetchSize, pr: &gotFs}})
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, fetchSize(16), gotFs)
}

func TestWriterCompressesLargePayload(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf, 1)

	big := command(bytes.Repeat([]byte("select * from a_very_long_table_name_padding "), 200))
	require.NoError(t, w.write(MtExecuteDirect, []partWriter{big}))

	var mh messageHeader
	dec := encoding.NewDecoder(bytes.NewReader(buf.Bytes()))
	require.NoError(t, mh.decode(dec))
	assert.NotZero(t, mh.packetOptions&packetOptionCompressed)
}
