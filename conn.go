// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"context"
	"sync"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// Connection is one authenticated HANA session: statements, result
// sets, and LOB handles obtained from it all share its underlying
// ConnectionCore and are only valid while it remains open (spec §3
// ConnectionCore, §5 Concurrency & Resource model).
type Connection struct {
	core        *p.ConnectionCore
	autoCommit  bool
	lobReadSize int32
	statCounters

	mu          sync.Mutex
	sessionVars map[string]string
	closed      bool
}

// SetSessionVariables sets session-scoped key/value pairs piggy-backed
// as a ClientInfo Part on the next statement that supports it (spec
// §9 "session variables as ClientInfo").
func (c *Connection) SetSessionVariables(vars map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionVars = vars
}

func (c *Connection) takeSessionVars() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	vars := c.sessionVars
	c.sessionVars = nil
	return vars
}

// Query executes sql with no bind parameters and returns its result
// set (spec §4.5 ExecuteDirect). autoCommit, when enabled, commits
// immediately after statements that did not open a cursor.
func (c *Connection) Query(ctx context.Context, sql string) (*ResultSet, error) {
	qr, _, err := c.core.ExecuteDirect(ctx, sql, c.takeSessionVars())
	if err != nil {
		return nil, wrapCoreErr(err)
	}
	if err := c.maybeAutoCommit(ctx, qr); err != nil {
		return nil, err
	}
	rs := newResultSet(c, qr)
	c.openResultSets.Add(1)
	return rs, nil
}

// Exec executes sql with no bind parameters and no expectation of a
// result set, returning the affected row counts.
func (c *Connection) Exec(ctx context.Context, sql string) ([]int32, error) {
	_, ra, err := c.core.ExecuteDirect(ctx, sql, c.takeSessionVars())
	if err != nil {
		return nil, wrapCoreErr(err)
	}
	if err := c.autoCommitNow(ctx); err != nil {
		return ra, err
	}
	return ra, nil
}

// Prepare parses sql on the server and returns a reusable statement
// handle (spec §4.7 Prepared-statement engine).
func (c *Connection) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	ps, err := c.core.Prepare(ctx, sql)
	if err != nil {
		return nil, wrapCoreErr(err)
	}
	c.openStatements.Add(1)
	return &PreparedStatement{conn: c, core: ps}, nil
}

// Commit commits the current transaction.
func (c *Connection) Commit(ctx context.Context) error {
	if err := c.core.Commit(ctx); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}

// Rollback rolls back the current transaction (spec §8 Scenario 5).
func (c *Connection) Rollback(ctx context.Context) error {
	if err := c.core.Rollback(ctx); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}

func (c *Connection) maybeAutoCommit(ctx context.Context, qr *p.QueryResult) error {
	if qr != nil && qr.Cursor != nil {
		return nil // a live cursor implies a statement whose commit the caller controls
	}
	return c.autoCommitNow(ctx)
}

func (c *Connection) autoCommitNow(ctx context.Context) error {
	if !c.autoCommit {
		return nil
	}
	return c.Commit(ctx)
}

// Reconnect replaces a dead underlying socket with a fresh one and
// re-authenticates, refusing while a transaction is open (spec §5
// "Automatic reconnect... never mid-transaction").
func (c *Connection) Reconnect(ctx context.Context) error {
	if err := c.core.Reconnect(ctx); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}

// Warnings drains warning-severity server messages accumulated since
// the last call (spec §7 "ServerError warnings... accumulated on the
// connection, not raised").
func (c *Connection) Warnings() []*p.HdbError { return c.core.Warnings() }

// Close ends the session, sending DISCONNECT on a best-effort basis
// (spec §3 "Dropping a ConnectionCore sends a DISCONNECT request").
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	if err := c.core.Disconnect(); err != nil {
		return wrapCoreErr(err)
	}
	return nil
}

// readLobChunk and writeLobChunk let Lob delegate to the core without
// exposing ConnectionCore to the rest of this package's callers.
func (c *Connection) readLobChunk(ctx context.Context, locatorID uint64, ofs int64, n int32) ([]byte, bool, error) {
	return c.core.ReadLobChunk(ctx, locatorID, ofs, n)
}

func (c *Connection) writeLobChunk(ctx context.Context, locatorID uint64, chunk []byte, last bool) error {
	return c.core.WriteLobChunk(ctx, locatorID, chunk, last)
}
