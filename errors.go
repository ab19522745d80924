// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"errors"
	"fmt"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// Kind classifies an Error per spec §7.
type Kind int

const (
	KindProtocol Kind = iota
	KindAuthentication
	KindServer
	KindConnectionBroken
	KindUsage
	KindConversion
	KindLob
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindAuthentication:
		return "authentication"
	case KindServer:
		return "server"
	case KindConnectionBroken:
		return "connection broken"
	case KindUsage:
		return "usage"
	case KindConversion:
		return "conversion"
	case KindLob:
		return "lob"
	default:
		return "unknown"
	}
}

// Error is the single error type every operation in this package
// returns (spec §7 "Propagation: all errors surface through a single
// result type").
type Error struct {
	Kind Kind
	// Server is set when Kind == KindServer: the underlying
	// HdbError(s) the server reported, first one first.
	Server []*p.HdbError
	msg    string
	err    error
}

func newError(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("hdb: %s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("hdb: %s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

func serverError(errs []*p.HdbError) *Error {
	if len(errs) == 0 {
		return nil
	}
	return &Error{Kind: KindServer, Server: errs, msg: errs[0].Error()}
}

// wrapCoreErr classifies an error returned by internal/protocol into
// the public Kind taxonomy. A *p.HdbError surfaces as KindServer;
// anything else (dead sockets, I/O failures, malformed-wire
// conditions) surfaces as KindConnectionBroken, since none of those
// are distinguishable from outside internal/protocol without a richer
// typed-error chain than that package currently returns (spec §7).
func wrapCoreErr(err error) *Error {
	if err == nil {
		return nil
	}
	var he *p.HdbError
	if errors.As(err, &he) {
		return &Error{Kind: KindServer, Server: []*p.HdbError{he}, msg: he.Error(), err: err}
	}
	return &Error{Kind: KindConnectionBroken, msg: "roundtrip failed", err: err}
}

// ErrClosed is returned by operations attempted on a Connection,
// PreparedStatement, or ResultSet that has already been closed or
// dropped (spec §7 Usage kind).
var ErrClosed = newError(KindUsage, "handle already closed", nil)
