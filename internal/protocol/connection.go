// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DialFunc opens the raw TCP (or TLS) connection a ConnectionCore
// frames messages over. Tests substitute an in-memory net.Conn pair;
// production code substitutes net.Dialer/tls.Dialer (spec §6 Dialer).
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// DefaultDialer is the Dialer used when ConnectionConfig.Dial is
// left nil.
func DefaultDialer(tlsConfig *tls.Config) DialFunc {
	d := &net.Dialer{}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if tlsConfig != nil {
			tconn := tls.Client(conn, tlsConfig)
			if err := tconn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tconn, nil
		}
		return conn, nil
	}
}

// Connection is the framed wire connection a single HANA session
// core is built on: one TCP (or TLS) socket, one outstanding request
// at a time (spec §5 "per-connection mutual exclusion"), and a dead
// flag set the instant any I/O error or read timeout is observed
// (spec §5 "read-timeout marking connection dead").
type Connection struct {
	conn   net.Conn
	cc     *countingConn
	w      *writer
	r      *reader
	mu     sync.Mutex
	dead   error // non-nil once the socket is known broken
	tracer trace.Tracer

	ReadTimeout time.Duration
}

// countingConn wraps a net.Conn to track cumulative bytes moved, the
// raw numbers a Stats snapshot (spec's ambient-stack observability
// surface) reports per connection.
type countingConn struct {
	net.Conn
	read, written atomic.Int64
}

func (c *countingConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	c.read.Add(int64(n))
	return n, err
}

func (c *countingConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	c.written.Add(int64(n))
	return n, err
}

// BytesRead and BytesWritten report cumulative I/O on this connection.
func (c *Connection) BytesRead() int64    { return c.cc.read.Load() }
func (c *Connection) BytesWritten() int64 { return c.cc.written.Load() }

// Connect dials addr and performs the HANA handshake preamble
// (protocol version negotiation byte) but not authentication: that is
// a separate roundtrip driven by the session core so it can react to a
// Redirect (spec §4.4). The clientID_ argument is not sent here.
func Connect(ctx context.Context, dial DialFunc, network, addr string, clientID_ clientID) (*Connection, error) {
	conn, err := dial(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("protocol: dial %s: %w", addr, err)
	}
	cc := &countingConn{Conn: conn}
	c := &Connection{
		conn:   conn,
		cc:     cc,
		w:      newWriter(cc, 0),
		r:      newReader(bufio.NewReaderSize(cc, 64*1024)),
		tracer: trace.NewNoopTracerProvider().Tracer("github.com/sap-hdb-core/hdb/internal/protocol"),
	}
	if err := c.sendProtocolPreamble(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// initializationRequest is the fixed 14-byte handshake HANA expects
// before any framed message: a magic byte, major/minor version, and
// padding (spec §3 preamble).
var initializationRequest = []byte{
	0xff, 0xff, 0xff, 0xff,
	4, 20, // major, minor protocol version this core speaks
	0, 0, 0, 0, 0, 0, 0, 0,
}

func (c *Connection) sendProtocolPreamble() error {
	if _, err := c.cc.Write(initializationRequest); err != nil {
		return fmt.Errorf("protocol: sending initialization request: %w", err)
	}
	reply := make([]byte, 8)
	if _, err := fullRead(c.cc, reply); err != nil {
		return fmt.Errorf("protocol: reading initialization reply: %w", err)
	}
	return nil
}

func fullRead(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Connection) setSessionID(id int64) { c.w.sessionID = id }

// Dead reports the error that killed this connection, if any.
func (c *Connection) Dead() error { return c.dead }

func (c *Connection) markDead(err error) error {
	if err != nil {
		c.dead = err
	}
	return err
}

// Close shuts down the socket. It does not send DISCONNECT: that is
// the session core's responsibility, since it alone knows whether a
// clean shutdown roundtrip is still possible (spec §5 "deterministic
// server-side cleanup on drop").
func (c *Connection) Close() error { return c.conn.Close() }

// Roundtrip sends one request and decodes its reply in one exclusive
// step (spec §4.3 "single roundtrip() entry point"). A read timeout or
// any I/O error permanently marks the connection dead: callers must
// not retry on it, they must reconnect (spec §5).
func (c *Connection) Roundtrip(mt MessageType, request []partWriter, reply []partReader) (*replyInfo, *hdbErrors, error) {
	_, span := c.tracer.Start(context.Background(), "protocol.roundtrip",
		trace.WithAttributes(roundtripSpanAttributes(mt, request, reply)...))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead != nil {
		return nil, nil, fmt.Errorf("protocol: connection is dead: %w", c.dead)
	}

	if c.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	if err := c.w.write(mt, request); err != nil {
		return nil, nil, c.markDead(err)
	}

	sinks := make([]sink, len(reply))
	for i, p := range reply {
		sinks[i] = sink{kind: p.kind(), pr: p}
	}
	info, errs, err := c.r.read(sinks)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil, c.markDead(fmt.Errorf("protocol: read timeout: %w", err))
		}
		return nil, nil, c.markDead(err)
	}
	return info, errs, nil
}

// roundtrip adapts Roundtrip to the roundtripper interface authenticate
// expects, discarding the framing metadata and surfacing any fatal
// server-reported error as a Go error (spec §4.4).
func (c *Connection) roundtrip(mt MessageType, request []partWriter, reply []partReader) error {
	_, errs, err := c.Roundtrip(mt, request, reply)
	if err != nil {
		return err
	}
	if errs != nil && errs.anyFatal() {
		return errs.errs[0]
	}
	return nil
}

// roundtripSpanAttributes describes one roundtrip() call by its
// function code and the Part kinds on both sides of the wire, the
// shape a trace backend needs to correlate a slow span with the HANA
// message that caused it (spec §9 DOMAIN STACK "one span per
// roundtrip() call carrying function code and part kinds").
func roundtripSpanAttributes(mt MessageType, request []partWriter, reply []partReader) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, attribute.String("hdb.function_code", mt.String()))
	if len(request) > 0 {
		kinds := make([]string, len(request))
		for i, p := range request {
			kinds[i] = p.kind().String()
		}
		attrs = append(attrs, attribute.StringSlice("hdb.request_part_kinds", kinds))
	}
	if len(reply) > 0 {
		kinds := make([]string, len(reply))
		for i, p := range reply {
			kinds[i] = p.kind().String()
		}
		attrs = append(attrs, attribute.StringSlice("hdb.reply_part_kinds", kinds))
	}
	return attrs
}

// defaultClientID generates a fresh random identity the server logs
// against this connection (spec §4.4). A UUID, rather than the
// teacher's PID@hostname scheme, stays unique across the many
// same-host, same-PID connections a pooled or clustered client opens.
func defaultClientID() clientID {
	return clientID(uuid.NewString())
}
