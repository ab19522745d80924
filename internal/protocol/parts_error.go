// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

// Severity classifies a single server-reported error (spec §7): a
// warning never aborts the statement it was raised for, everything
// else does.
type Severity int8

const (
	SeverityWarning Severity = 0
	SeverityError   Severity = 1
	SeverityFatal   Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	default:
		return "error"
	}
}

// HdbError is one entry of an Error Part: SAP HANA reports every SQL
// error with a numeric code, a five-character SQLSTATE, the position
// of the offending statement within a batch, and a message (spec §7,
// §4.8 multi-statement batches).
type HdbError struct {
	Code         int32
	Position     int32
	TextLength   int32
	Severity     Severity
	SQLState     string
	Text         string
}

func (e *HdbError) Error() string {
	return fmt.Sprintf("SQL error %d (%s) at statement %d: %s", e.Code, e.SQLState, e.Position, e.Text)
}

const errorFixedSize = 4 + 4 + 4 + 1 + 5 + 2 // code, position, text length, severity, SQLSTATE, filler

// hdbErrors is the decoded Error Part: the server can report more than
// one error in a single reply, one per statement position in a batch
// (spec §4.8).
type hdbErrors struct {
	errs []*HdbError
}

func (*hdbErrors) kind() PartKind { return PkError }

func (he *hdbErrors) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	he.errs = make([]*HdbError, n)
	for i := 0; i < n; i++ {
		e := &HdbError{}
		e.Code = dec.Int32()
		e.Position = dec.Int32()
		e.TextLength = dec.Int32()
		e.Severity = Severity(dec.Int8())
		sqlState := dec.RawBytes(5)
		e.SQLState = string(sqlState)
		dec.Skip(2) // filler
		b, err := dec.CESU8Bytes(int(e.TextLength))
		if err != nil {
			e.Text = string(b)
		} else {
			e.Text = string(b)
		}
		// Bytes of the Part left unread after the last record are
		// skipped by the framer, which counts what this decode
		// consumed against the Part's buffer length.
		he.errs[i] = e
	}
	return dec.Error()
}

// anyFatal reports whether any contained error is Error or Fatal
// severity (as opposed to pure warnings).
func (he *hdbErrors) anyFatal() bool {
	for _, e := range he.errs {
		if e.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

func (he *hdbErrors) warnings() []*HdbError {
	var ws []*HdbError
	for _, e := range he.errs {
		if e.Severity == SeverityWarning {
			ws = append(ws, e)
		}
	}
	return ws
}
