// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"context"
	"sync/atomic"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// PreparedStatement is a parsed, server-resident statement handle
// (spec §4.7 Prepared-statement engine).
type PreparedStatement struct {
	conn   *Connection
	core   *p.PreparedStatementCore
	closed atomic.Bool
}

// ParameterDescriptors returns the bind-parameter shape, in
// declaration order.
func (ps *PreparedStatement) ParameterDescriptors() []p.ParameterDescriptor {
	return ps.core.ParameterDescriptors()
}

// ResultDescriptors returns the result-set column shape, empty for
// statements that do not produce rows.
func (ps *PreparedStatement) ResultDescriptors() []p.ColumnDescriptor {
	return ps.core.ResultDescriptors()
}

// AddBatch appends one row of bind values to the pending batch (spec
// §4.7 "add_batch(record)").
func (ps *PreparedStatement) AddBatch(row Row) { ps.core.AddBatch(row) }

// ExecuteBatch sends every row accumulated via AddBatch in a single
// Execute request (spec §4.7 "execute_batch", §8 Scenario 2).
func (ps *PreparedStatement) ExecuteBatch(ctx context.Context) (*ResultSet, []int32, error) {
	qr, ra, err := ps.core.ExecuteBatch(ctx)
	if err != nil {
		return nil, nil, wrapCoreErr(err)
	}
	if err := ps.conn.maybeAutoCommit(ctx, qr); err != nil {
		return nil, ra, err
	}
	return newResultSet(ps.conn, qr), ra, nil
}

// ExecuteRow executes a single row of bind values immediately (spec
// §4.7 "execute_row").
func (ps *PreparedStatement) ExecuteRow(ctx context.Context, row Row) (*ResultSet, []int32, error) {
	qr, ra, err := ps.core.ExecuteRow(ctx, row)
	if err != nil {
		return nil, nil, wrapCoreErr(err)
	}
	if err := ps.conn.maybeAutoCommit(ctx, qr); err != nil {
		return nil, ra, err
	}
	return newResultSet(ps.conn, qr), ra, nil
}

// ExecuteStreamingLob executes a single row containing one or more
// p.LobParam{Reserve: true} bind values, then drains the matching
// *LobWriter (in the same left-to-right order the reserved parameters
// appear in row) against the locators the server assigns (spec §4.7
// "LOB write protocol", §8 Scenario 3 "large NCLOB streaming in").
func (ps *PreparedStatement) ExecuteStreamingLob(ctx context.Context, row Row, streams []*LobWriter) (*ResultSet, []int32, error) {
	qr, ra, err := ps.core.ExecuteRow(ctx, row)
	if err != nil {
		return nil, nil, wrapCoreErr(err)
	}
	locators := []uint64(nil)
	if qr != nil {
		locators = qr.ReservedLobLocators
	}
	reserved := 0
	for _, w := range streams {
		if !w.atEOF() {
			reserved++
		}
	}
	if reserved != len(locators) {
		return nil, ra, newError(KindUsage, "reserved LOB locator count does not match stream count", nil)
	}
	j := 0
	for _, w := range streams {
		if w.atEOF() {
			continue
		}
		if err := w.drain(ctx, ps.conn, locators[j]); err != nil {
			return nil, ra, err
		}
		j++
	}
	if err := ps.conn.maybeAutoCommit(ctx, qr); err != nil {
		return nil, ra, err
	}
	return newResultSet(ps.conn, qr), ra, nil
}

// Close releases the server-side statement handle (spec §3 "Dropping
// a PreparedStatementCore sends a DROPSTATEMENTID Part").
func (ps *PreparedStatement) Close(ctx context.Context) error {
	if ps.closed.Swap(true) {
		return nil
	}
	ps.conn.openStatements.Add(-1)
	if err := ps.core.Drop(ctx); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}
