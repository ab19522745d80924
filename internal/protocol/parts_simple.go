// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

// command carries the literal SQL text of a direct-execute request
// (spec §4.5 ExecuteDirect). It is always CESU-8 encoded.
type command string

func (command) kind() PartKind { return PkCommand }
func (c command) numArg() int  { return 1 }
func (c command) size() int {
	return len([]byte(c)) * 3 // worst case: every rune expands under CESU-8
}
func (c command) encode(enc *encoding.Encoder) error {
	enc.CESU8String(string(c))
	return enc.Error()
}

// clientID identifies the driver connection to the server (a fresh
// UUID per connection, see defaultClientID; spec §4.4).
type clientID string

func (clientID) kind() PartKind { return PkClientID }
func (c clientID) numArg() int  { return 1 }
func (c clientID) size() int    { return len(c) }
func (c clientID) encode(enc *encoding.Encoder) error {
	enc.String(string(c))
	return enc.Error()
}

// statementID is the server-assigned handle a prepared statement is
// addressed by for the rest of its life (spec §4.7).
type statementID uint64

func (statementID) kind() PartKind { return PkStatementID }
func (id statementID) numArg() int  { return 1 }
func (id statementID) size() int    { return 8 }
func (id statementID) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(id))
	return enc.Error()
}
func (id *statementID) decode(dec *encoding.Decoder, ph *partHeader) error {
	*id = statementID(dec.Uint64())
	return dec.Error()
}

// resultsetID is the server-assigned handle of an open cursor (spec
// §4.6).
type resultsetID uint64

func (resultsetID) kind() PartKind { return PkResultsetID }
func (id resultsetID) numArg() int  { return 1 }
func (id resultsetID) size() int    { return 8 }
func (id resultsetID) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(id))
	return enc.Error()
}
func (id *resultsetID) decode(dec *encoding.Decoder, ph *partHeader) error {
	*id = resultsetID(dec.Uint64())
	return dec.Error()
}

// fetchSize requests how many rows the next FetchNext reply should
// contain (spec §4.6, default from ConnectionConfig).
type fetchSize int32

func (fetchSize) kind() PartKind { return PkFetchSize }
func (f fetchSize) numArg() int   { return 1 }
func (f fetchSize) size() int     { return 4 }
func (f fetchSize) encode(enc *encoding.Encoder) error {
	enc.Int32(int32(f))
	return enc.Error()
}
func (f *fetchSize) decode(dec *encoding.Decoder, ph *partHeader) error {
	*f = fetchSize(dec.Int32())
	return dec.Error()
}

// rowsAffected reports, per executed statement in a batch, the row
// count or a sentinel (spec §4.5).
type rowsAffected []int32

const (
	raSuccessNoInfo int32 = -2
	raExecuteFailed int32 = -3
)

func (*rowsAffected) kind() PartKind { return PkRowsAffected }
func (ra *rowsAffected) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	counts := make([]int32, n)
	for i := 0; i < n; i++ {
		counts[i] = dec.Int32()
	}
	*ra = counts
	return dec.Error()
}

// transactionFlags reports transaction/session state changes observed
// as a side effect of the request (committed, rolled back, readonly
// mode changed - spec §4.5).
type transactionFlags struct {
	plainOptions
}

func (*transactionFlags) kind() PartKind { return PkTransactionFlags }
func (f *transactionFlags) decode(dec *encoding.Decoder, ph *partHeader) error {
	return f.plainOptions.decode(dec, ph.numArg())
}

const (
	tfRolledBack            int8 = 0
	tfCommitted             int8 = 1
	tfNewIsolationLevel     int8 = 2
	tfDDLCommitModeChanged  int8 = 3
	tfWriteTransactionState int8 = 4
	tfSessionclosingTransactionError int8 = 5
)

func (f *transactionFlags) committed() bool   { return f.asBool(tfCommitted) }
func (f *transactionFlags) rolledBack() bool  { return f.asBool(tfRolledBack) }

// commandInfo echoes the originating line/module of a statement, used
// in server-side error diagnostics (spec §4.5; rarely populated by
// clients).
type commandInfo struct {
	plainOptions
}

func (commandInfo) kind() PartKind { return PkCommandInfo }
func (c commandInfo) numArg() int  { return c.plainOptions.numArg() }
func (c commandInfo) size() int    { return c.plainOptions.size() }
func (c commandInfo) encode(enc *encoding.Encoder) error { return c.plainOptions.encode(enc) }

// fetchOptions and commitOptions are both small option-map Parts that
// this core never needs to populate beyond an empty request; kept as
// distinct types because their PartKind differs and a peer may still
// decode them back.
type fetchOptions struct{ plainOptions }

func (fetchOptions) kind() PartKind { return PkFetchOptions }
func (o fetchOptions) numArg() int  { return o.plainOptions.numArg() }
func (o fetchOptions) size() int    { return o.plainOptions.size() }
func (o fetchOptions) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }

type commitOptions struct{ plainOptions }

func (commitOptions) kind() PartKind { return PkCommitOptions }
func (o commitOptions) numArg() int  { return o.plainOptions.numArg() }
func (o commitOptions) size() int    { return o.plainOptions.size() }
func (o commitOptions) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }

// sessionContext is an opaque server-assigned session cookie; decoded
// and retained but never interpreted (spec §4.4, Non-goals).
type sessionContext []byte

func (*sessionContext) kind() PartKind { return PkSessionContext }
func (sc *sessionContext) decode(dec *encoding.Decoder, ph *partHeader) error {
	*sc = dec.RawBytes(int(ph.bufferLength))
	return dec.Error()
}

// tableLocation names the physical table backing a resultset row, used
// by the server when it needs to disambiguate updatable cursors. Only
// decoded for completeness; this core never issues positioned
// updates (spec §1 Non-goals).
type tableLocation []int32

func (*tableLocation) kind() PartKind { return PkTableLocation }
func (t *tableLocation) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	locs := make([]int32, n)
	for i := 0; i < n; i++ {
		locs[i] = dec.Int32()
	}
	*t = locs
	return dec.Error()
}
