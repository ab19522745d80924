// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"context"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// Value is one column value as decoded off the wire: nil for SQL
// NULL, or one of int64, float32, float64, bool, string, []byte,
// *p.Decimal, time.Time, time.Duration (SECONDTIME), or a Lob for a
// large object field (spec §3 TypedValue, §6 "HdbValue tagged union").
type Value = any

// Row is one result-set row, column values in declared order.
type Row = p.Row

// ResultSet is a cursor over a statement's output: the first batch of
// rows rides the same reply as the statement that produced it: further
// batches are paged in lazily via FetchNext (spec §4.6 Result-set
// engine).
type ResultSet struct {
	conn    *Connection
	Columns []p.ColumnDescriptor

	buffered []Row
	pos      int
	cursor   *p.ResultSetHandle
	closed   bool // cursor drained server-side; no further FetchNext needed
	released bool // Close has already run its bookkeeping
}

func newResultSet(conn *Connection, qr *p.QueryResult) *ResultSet {
	if qr == nil {
		return &ResultSet{conn: conn, closed: true}
	}
	return &ResultSet{
		conn: conn, Columns: qr.Columns,
		buffered: qr.Rows, cursor: qr.Cursor, closed: qr.Closed && qr.Cursor == nil,
	}
}

// Next advances to and returns the next row, fetching another batch
// from the server when the buffered one is exhausted. The second
// return is false once the cursor is drained (spec §8 "after
// last-packet-received, no further FetchNext is issued").
func (rs *ResultSet) Next(ctx context.Context) (Row, bool, error) {
	for rs.pos >= len(rs.buffered) {
		if rs.closed || rs.cursor == nil {
			return nil, false, nil
		}
		rows, done, err := rs.cursor.FetchNext(ctx)
		if err != nil {
			return nil, false, wrapCoreErr(err)
		}
		rs.buffered = rows
		rs.pos = 0
		rs.closed = done
		if len(rows) == 0 {
			if done {
				return nil, false, nil
			}
			continue
		}
	}
	row := rs.buffered[rs.pos]
	rs.pos++
	return bindLobs(rs.conn, row), true, nil
}

// bindLobs wraps any LobDescriptor values in the row with a Lob bound
// to conn, so callers can stream them without reaching into the
// internal protocol package (spec §3 LobLocator "back-references keep
// the server resource alive").
func bindLobs(conn *Connection, row Row) Row {
	out := row
	for i, v := range row {
		if ld, ok := v.(p.LobDescriptor); ok {
			if out == row {
				out = append(Row(nil), row...)
			}
			out[i] = newLob(conn, ld)
		}
	}
	return out
}

// Close releases the server-side cursor if one is still open (spec §3
// "Dropping a ResultSetCursor with a nonzero server-side id sends
// CLOSERESULTSET").
func (rs *ResultSet) Close(ctx context.Context) error {
	if rs.released {
		return nil
	}
	rs.released = true
	rs.conn.openResultSets.Add(-1)
	if rs.closed || rs.cursor == nil {
		return nil
	}
	if err := rs.cursor.Close(ctx); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}
