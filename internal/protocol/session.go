// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ConnectionCore owns one authenticated HANA session: the framed
// Connection underneath it, the negotiated ConnectOptions, and
// whatever StatementContext cookie the server last attached (spec §4
// Session core). Every exported method acquires the Connection's
// internal mutex via Roundtrip, so a ConnectionCore is safe to share
// across goroutines the same way *sql.DB is, though this core expects
// one logical caller at a time per the "no global mutable state"
// concurrency model (spec §5).
type ConnectionCore struct {
	conn     *Connection
	log      *slog.Logger
	dial     DialFunc
	addr     string
	clientID clientID
	cfg      ConnectionConfig

	mu          sync.Mutex
	co          *connectOptions
	stmtCtx     *statementContext
	warnings    []*HdbError
	inTxn       bool // set on the first statement after connect/commit/rollback, cleared by either
	nextStmtSeq uint64 // local bookkeeping only; the server assigns the real StatementID

	// pending holds CLOSERESULTSET/DROPSTATEMENTID Parts queued by a
	// cursor or statement that was released without an explicit
	// roundtrip of its own; the next request issued on this connection
	// piggy-backs them (spec §3 "sends a CLOSERESULTSET Part
	// piggy-backed on the next request", §5 "queues a corresponding
	// drop Part for piggyback on the next roundtrip").
	pending []partWriter

	FetchSize int32
	LobChunkSize int32
}

// ConnectionConfig carries every user-supplied option this core
// understands (spec §6, mirrored from the two option tables: dial
// target, credentials, fetch/LOB tuning, TLS, client identification).
type ConnectionConfig struct {
	Host, Port string
	Username, Password string
	Dial      DialFunc
	ClientID  string
	FetchSize int32
	LobChunkSize int32
	Logger    *slog.Logger
}

const (
	defaultFetchSize    int32 = 32
	defaultLobChunkSize int32 = 16 * 1024
)

// ConnectSession dials addr, runs the authentication handshake, and
// returns a ready-to-use ConnectionCore. A DBConnectInfo-driven
// redirect is followed exactly once (spec §4.4 Redirect, §9 Open
// Question: redirect retry bound).
func ConnectSession(ctx context.Context, cfg ConnectionConfig) (*ConnectionCore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dial := cfg.Dial
	if dial == nil {
		dial = DefaultDialer(nil)
	}
	cid := defaultClientID()
	if cfg.ClientID != "" {
		cid = clientID(cfg.ClientID)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	core, err := connectOnce(ctx, dial, addr, cid, cfg, logger)
	if err != nil {
		var redirErr *redirectError
		if asRedirect(err, &redirErr) {
			redirectAddr := fmt.Sprintf("%s:%d", redirErr.host, redirErr.port)
			logger.Info("following one-time redirect", "to", redirectAddr)
			return connectOnce(ctx, dial, redirectAddr, cid, cfg, logger)
		}
		return nil, err
	}
	return core, nil
}

func asRedirect(err error, target **redirectError) bool {
	re, ok := err.(*redirectError)
	if ok {
		*target = re
	}
	return ok
}

func connectOnce(ctx context.Context, dial DialFunc, addr string, cid clientID, cfg ConnectionConfig, logger *slog.Logger) (*ConnectionCore, error) {
	conn, err := Connect(ctx, dial, "tcp", addr, cid)
	if err != nil {
		return nil, err
	}

	core := &ConnectionCore{
		conn: conn, log: logger, dial: dial, addr: addr, clientID: cid, cfg: cfg,
		FetchSize:    coalesce32(cfg.FetchSize, defaultFetchSize),
		LobChunkSize: coalesce32(cfg.LobChunkSize, defaultLobChunkSize),
	}

	cco := clientContext{plainOptions: plainOptions{
		ccoClientVersion:            optStringType("1.0.0"),
		ccoClientType:               optStringType("go-hdb-core"),
		ccoClientApplicationProgram: optStringType("go"),
	}}
	dci := &dbConnectInfo{}
	if _, _, err := conn.Roundtrip(MtDBConnectInfo, []partWriter{cco}, []partReader{dci}); err != nil {
		conn.Close()
		return nil, err
	}
	if host := dci.asString(ciHost); host != "" && !dci.asBool(ciIsConnected) {
		conn.Close()
		return nil, &redirectError{host: host, port: int32(dci.asInt(ciPort))}
	}

	co, err := authenticate(conn, cid, cfg.Username, cfg.Password)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("protocol: authentication failed: %w", err)
	}
	core.co = co
	return core, nil
}

func coalesce32(v, def int32) int32 {
	if v > 0 {
		return v
	}
	return def
}

// Reconnect replaces a dead underlying Connection with a fresh one,
// authenticating from scratch. It refuses while a transaction is in
// flight: the reconnect policy never resurrects a connection mid
// transaction, since the server-side transaction state is gone the
// moment the socket drops (spec §5 "automatic reconnect-once policy,
// never mid-transaction").
func (c *ConnectionCore) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.inTxn {
		c.mu.Unlock()
		return fmt.Errorf("protocol: cannot reconnect: a transaction is in progress")
	}
	c.mu.Unlock()

	if c.conn.Dead() == nil {
		return nil
	}
	fresh, err := connectOnce(ctx, c.dial, c.addr, c.clientID, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("protocol: reconnect failed: %w", err)
	}
	c.conn = fresh.conn
	c.co = fresh.co
	c.stmtCtx = nil
	return nil
}

// Disconnect flushes any still-pending cleanup Parts as a dedicated
// roundtrip, sends a clean DISCONNECT, and closes the socket (spec §5
// "deterministic server-side cleanup on drop").
func (c *ConnectionCore) Disconnect() error {
	if pending := c.drainPending(); len(pending) > 0 {
		c.conn.Roundtrip(MtCloseResultset, pending, nil)
	}
	_, _, err := c.conn.Roundtrip(MtDisconnect, nil, nil)
	closeErr := c.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// enqueuePending appends a cleanup Part for piggyback on the next
// roundtrip issued on this connection.
func (c *ConnectionCore) enqueuePending(w partWriter) {
	c.mu.Lock()
	c.pending = append(c.pending, w)
	c.mu.Unlock()
}

// drainPending returns and clears every cleanup Part queued since the
// last drain, for a caller about to issue a request to piggy-back them
// onto.
func (c *ConnectionCore) drainPending() []partWriter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	pending := c.pending
	c.pending = nil
	return pending
}

// BytesRead and BytesWritten report cumulative wire I/O for this
// session's underlying connection.
func (c *ConnectionCore) BytesRead() int64    { return c.conn.BytesRead() }
func (c *ConnectionCore) BytesWritten() int64 { return c.conn.BytesWritten() }

// Warnings drains and returns every warning-severity HdbError
// accumulated since the last call (spec §9 "warnings accumulation").
func (c *ConnectionCore) Warnings() []*HdbError {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws := c.warnings
	c.warnings = nil
	return ws
}

func (c *ConnectionCore) recordWarnings(errs *hdbErrors) {
	if errs == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, errs.warnings()...)
}

// updateStatementContext stores a StatementContext cookie if the
// server sent one, and otherwise leaves the previous value in place
// (spec §9 Open Question: StatementContext absence is tolerated by
// keeping the prior token).
func (c *ConnectionCore) updateStatementContext(sc *statementContext) {
	if sc == nil || len(sc.plainOptions) == 0 {
		return
	}
	c.mu.Lock()
	c.stmtCtx = sc
	c.mu.Unlock()
}

// markInTransaction updates the in-transaction flag from a reply's
// TransactionFlags Part: a commit or rollback clears it, anything else
// sets it, read-only statements included; no other flag is consulted
// (spec §5 reconnect policy input).
func (c *ConnectionCore) markInTransaction(tf *transactionFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case tf.committed() || tf.rolledBack():
		c.inTxn = false
	default:
		c.inTxn = true
	}
}

func (c *ConnectionCore) pendingStatementContext() []partWriter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stmtCtx == nil {
		return nil
	}
	return []partWriter{statementContext{plainOptions: c.stmtCtx.plainOptions}}
}

// QueryResult is the decoded reply of a query-producing statement:
// column descriptors, the first batch of rows already fetched, and,
// if the cursor was not exhausted by that first batch, a live handle
// for FetchNext (spec §4.6 "result-set cursor lazy fetch").
type QueryResult struct {
	Columns    []ColumnDescriptor
	Rows       []Row
	ResultsetID uint64
	Closed     bool
	// Cursor pages through any rows beyond the first batch; nil for
	// statements with no result set or whose first batch was already
	// the last (Closed is true).
	Cursor *ResultSetHandle
	// ReservedLobLocators holds the locator(s) the server assigned to
	// any IN parameter bound with LobParam.Reserve set, in bind order,
	// for the caller to drive with WriteLobChunk (spec §4.7 "LOB write
	// protocol").
	ReservedLobLocators []uint64
}

func rowHasReservedLob(row Row) bool {
	for _, v := range row {
		if lp, ok := v.(*LobParam); ok && lp.Reserve {
			return true
		}
	}
	return false
}

// ResultSetHandle is an opaque, paging-capable server-side cursor
// handle (spec §3 "ResultSetCursor (internal state)"). It hides the
// unexported field-descriptor slice FetchNext needs from the public
// API surface.
type ResultSetHandle struct {
	core   *ConnectionCore
	rsID   uint64
	fields []*fieldMetadata
	closed bool
}

// FetchNext retrieves the next batch of rows (spec §4.6 "lazy fetch").
func (h *ResultSetHandle) FetchNext(ctx context.Context) ([]Row, bool, error) {
	if h.closed {
		return nil, true, nil
	}
	rows, done, err := h.core.FetchNext(ctx, h.rsID, h.fields)
	if err != nil {
		return nil, false, err
	}
	h.closed = done
	return rows, done, nil
}

// Close releases the server-side cursor if it has not already been
// exhausted (spec §3 "dropping a ResultSetCursor with a nonzero
// server-side id sends CLOSERESULTSET").
func (h *ResultSetHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.core.CloseResultSet(ctx, h.rsID)
}

// ExecuteDirect runs sql with no bind parameters, piggy-backing
// clientInfo session variables when the message type supports it
// (spec §4.5 ExecuteDirect, §9 "session variables as ClientInfo").
func (c *ConnectionCore) ExecuteDirect(ctx context.Context, sql string, info map[string]string) (*QueryResult, []int32, error) {
	req := []partWriter{command(sql)}
	if len(info) > 0 && MtExecuteDirect.ClientInfoSupported() {
		req = append(req, clientInfo(info))
	}
	req = append(req, c.pendingStatementContext()...)
	req = append(req, c.drainPending()...)

	rmd := &resultMetadata{}
	rsID := new(resultsetID)
	ra := &rowsAffected{}
	tf := &transactionFlags{}
	sc := &statementContext{}

	rows := &resultsetRows{md: rmd}
	_, errs, err := c.conn.Roundtrip(MtExecuteDirect, req, []partReader{rmd, rsID, ra, tf, sc, rows})
	if err != nil {
		return nil, nil, err
	}
	c.recordWarnings(errs)
	c.updateStatementContext(sc)
	c.markInTransaction(tf)
	if errs != nil && errs.anyFatal() {
		return nil, nil, errs.errs[0]
	}

	if len(rmd.fields) == 0 {
		return nil, []int32(*ra), nil
	}

	// The first batch of rows for a direct SELECT rides along on the
	// same reply as the metadata in HANA's framing; callers needing
	// more than that batch continue with FetchNext using ResultsetID.
	cols := make([]ColumnDescriptor, len(rmd.fields))
	for i, f := range rmd.fields {
		cols[i] = f.Descriptor()
	}
	closed := rows.noMoreRows()
	qr := &QueryResult{Columns: cols, Rows: rows.rows, ResultsetID: uint64(*rsID), Closed: closed}
	if !closed {
		qr.Cursor = &ResultSetHandle{core: c, rsID: uint64(*rsID), fields: rmd.fields}
	}
	return qr, nil, nil
}

// FetchNext retrieves the next batch of rows for an open cursor (spec
// §4.6). It returns the rows and whether the cursor is now exhausted.
func (c *ConnectionCore) FetchNext(ctx context.Context, rsID uint64, fields []*fieldMetadata) ([]Row, bool, error) {
	fs := fetchSize(c.FetchSize)
	req := []partWriter{toResultsetIDWriter(rsID), fs}
	req = append(req, c.drainPending()...)
	rows := &resultsetRows{fields: fields}
	_, errs, err := c.conn.Roundtrip(MtFetchNext, req, []partReader{rows})
	if err != nil {
		return nil, false, err
	}
	c.recordWarnings(errs)
	if errs != nil && errs.anyFatal() {
		return nil, false, errs.errs[0]
	}
	return rows.rows, rows.noMoreRows(), nil
}

// toResultsetIDWriter adapts a uint64 handle into the partWriter the
// wire format expects; resultsetID itself already implements encode,
// this just documents the call site's intent.
func toResultsetIDWriter(id uint64) partWriter { return resultsetID(id) }

// CloseResultSet queues the CLOSERESULTSET Part for rsID onto the
// pending-cleanup list; it is piggy-backed onto whatever roundtrip this
// connection issues next rather than sent as its own message (spec §3
// "sends a CLOSERESULTSET Part piggy-backed on the next request").
// Disconnect flushes any remainder if no further roundtrip comes.
func (c *ConnectionCore) CloseResultSet(ctx context.Context, rsID uint64) error {
	c.enqueuePending(resultsetID(rsID))
	return nil
}

// Commit commits the current transaction.
func (c *ConnectionCore) Commit(ctx context.Context) error {
	tf := &transactionFlags{}
	_, errs, err := c.conn.Roundtrip(MtCommit, nil, []partReader{tf})
	if err != nil {
		return err
	}
	c.recordWarnings(errs)
	c.markInTransaction(tf)
	if errs != nil && errs.anyFatal() {
		return errs.errs[0]
	}
	return nil
}

// Rollback rolls back the current transaction.
func (c *ConnectionCore) Rollback(ctx context.Context) error {
	tf := &transactionFlags{}
	_, errs, err := c.conn.Roundtrip(MtRollback, nil, []partReader{tf})
	if err != nil {
		return err
	}
	c.recordWarnings(errs)
	c.markInTransaction(tf)
	if errs != nil && errs.anyFatal() {
		return errs.errs[0]
	}
	return nil
}

// PreparedStatementCore is a parsed, server-resident statement handle:
// its parameter and result descriptors, obtained once at Prepare time
// and reused for every subsequent Execute (spec §4.7).
type PreparedStatementCore struct {
	core      *ConnectionCore
	id        statementID
	dropped   bool
	inFields  []*parameterField
	outFields []*parameterField
	resultCols []*fieldMetadata
	batch     []Row
}

// Prepare parses sql on the server and returns a reusable statement
// handle along with its parameter and result descriptors (spec §4.7).
func (c *ConnectionCore) Prepare(ctx context.Context, sql string) (*PreparedStatementCore, error) {
	req := []partWriter{command(sql)}
	sid := new(statementID)
	pmd := &parameterMetadata{}
	rmd := &resultMetadata{}
	_, errs, err := c.conn.Roundtrip(MtPrepare, req, []partReader{sid, pmd, rmd})
	if err != nil {
		return nil, err
	}
	c.recordWarnings(errs)
	if errs != nil && errs.anyFatal() {
		return nil, errs.errs[0]
	}

	ps := &PreparedStatementCore{core: c, id: *sid, resultCols: rmd.fields}
	for _, f := range pmd.fields {
		if f.In() {
			ps.inFields = append(ps.inFields, f)
		}
		if f.Out() {
			ps.outFields = append(ps.outFields, f)
		}
	}
	return ps, nil
}

// ParameterDescriptors returns the IN bind-parameter shape, in
// declaration order.
func (ps *PreparedStatementCore) ParameterDescriptors() []ParameterDescriptor {
	out := make([]ParameterDescriptor, len(ps.inFields))
	for i, f := range ps.inFields {
		out[i] = f.Descriptor()
	}
	return out
}

// ResultDescriptors returns the result-set column shape, empty for
// statements that do not produce rows.
func (ps *PreparedStatementCore) ResultDescriptors() []ColumnDescriptor {
	out := make([]ColumnDescriptor, len(ps.resultCols))
	for i, f := range ps.resultCols {
		out[i] = f.Descriptor()
	}
	return out
}

// AddBatch appends one row of bind values to the pending batch (spec
// §4.7 "batch accumulation").
func (ps *PreparedStatementCore) AddBatch(row Row) {
	ps.batch = append(ps.batch, row)
}

// ExecuteBatch sends every row accumulated via AddBatch in a single
// Execute request and clears the batch (spec §4.7 "execute_batch").
func (ps *PreparedStatementCore) ExecuteBatch(ctx context.Context) (*QueryResult, []int32, error) {
	batch := ps.batch
	ps.batch = nil
	return ps.execute(ctx, batch)
}

// ExecuteRow executes a single row of bind values immediately, without
// touching the pending batch (spec §4.7 "execute_row").
func (ps *PreparedStatementCore) ExecuteRow(ctx context.Context, row Row) (*QueryResult, []int32, error) {
	return ps.execute(ctx, []Row{row})
}

func (ps *PreparedStatementCore) execute(ctx context.Context, rows []Row) (*QueryResult, []int32, error) {
	c := ps.core
	req := []partWriter{ps.id}
	for _, row := range rows {
		req = append(req, &inputParameters{fields: ps.inFields, row: row})
	}
	req = append(req, c.pendingStatementContext()...)
	req = append(req, c.drainPending()...)

	ra := &rowsAffected{}
	op := &outputParameters{fields: ps.outFields}
	rsID := new(resultsetID)
	tf := &transactionFlags{}
	sc := &statementContext{}

	rsRows := &resultsetRows{fields: ps.resultCols}
	reply := []partReader{ra, tf, sc}
	if len(ps.outFields) > 0 {
		reply = append(reply, op)
	}
	if len(ps.resultCols) > 0 {
		reply = append(reply, rsID, rsRows)
	}
	wlr := &writeLobReply{}
	if len(rows) == 1 && rowHasReservedLob(rows[0]) {
		reply = append(reply, wlr)
	}

	_, errs, err := c.conn.Roundtrip(MtExecute, req, reply)
	if err != nil {
		return nil, nil, err
	}
	c.recordWarnings(errs)
	c.updateStatementContext(sc)
	c.markInTransaction(tf)
	if errs != nil && errs.anyFatal() {
		return nil, nil, errs.errs[0]
	}

	var qr *QueryResult
	if len(ps.resultCols) > 0 {
		cols := make([]ColumnDescriptor, len(ps.resultCols))
		for i, f := range ps.resultCols {
			cols[i] = f.Descriptor()
		}
		closed := rsRows.noMoreRows()
		qr = &QueryResult{Columns: cols, Rows: rsRows.rows, ResultsetID: uint64(*rsID), Closed: closed}
		if !closed {
			qr.Cursor = &ResultSetHandle{core: c, rsID: uint64(*rsID), fields: ps.resultCols}
		}
	}
	if len(ps.outFields) > 0 && qr == nil {
		qr = &QueryResult{}
	}
	if qr != nil && op.row != nil {
		qr.Rows = []Row{op.row}
	}
	if len(wlr.locatorIDs) > 0 {
		if qr == nil {
			qr = &QueryResult{}
		}
		qr.ReservedLobLocators = wlr.locatorIDs
	}
	return qr, []int32(*ra), nil
}

// Drop queues the DROPSTATEMENTID Part for this statement onto the
// pending-cleanup list (spec §5 "queues a corresponding drop Part for
// piggyback on the next roundtrip"). It is safe to call more than once.
func (ps *PreparedStatementCore) Drop(ctx context.Context) error {
	if ps.dropped {
		return nil
	}
	ps.dropped = true
	ps.core.enqueuePending(ps.id)
	return nil
}

// ReadLobChunk fetches the next chunk of a LOB value addressed by
// locatorID, starting at offset ofs (char offset for NCLOB/CLOB/TEXT,
// byte offset for BLOB/BINTEXT), at most length units long (spec §4.9
// "read-side locator-driven chunked reads").
func (c *ConnectionCore) ReadLobChunk(ctx context.Context, locatorID uint64, ofs int64, length int32) ([]byte, bool, error) {
	req := readLobRequest{locatorID: locatorID, ofs: ofs, length: length}
	reply := &readLobReply{}
	_, errs, err := c.conn.Roundtrip(MtReadLob, []partWriter{req}, []partReader{reply})
	if err != nil {
		return nil, false, err
	}
	c.recordWarnings(errs)
	if errs != nil && errs.anyFatal() {
		return nil, false, errs.errs[0]
	}
	return reply.b, reply.options.isLastData(), nil
}

// WriteLobChunk uploads the next chunk of an input LOB parameter
// previously reserved by an Execute request, marking it the final
// chunk when last is true (spec §4.9 "write-side WRITELOB chunking").
func (c *ConnectionCore) WriteLobChunk(ctx context.Context, locatorID uint64, chunk []byte, last bool) error {
	req := writeLobRequest{locatorID: locatorID, b: chunk, last: last}
	reply := &writeLobReply{}
	_, errs, err := c.conn.Roundtrip(MtWriteLob, []partWriter{req}, []partReader{reply})
	if err != nil {
		return err
	}
	c.recordWarnings(errs)
	if errs != nil && errs.anyFatal() {
		return errs.errs[0]
	}
	return nil
}

var sessionSeq atomic.Uint64

func nextSessionLogID() uint64 { return sessionSeq.Add(1) }
