// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/sap-hdb-core/hdb/internal/protocol/encoding"

// Row is one decoded result-set row or OutputParameters record: field
// values in column order, typed per decodeField's conventions.
type Row []any

// resultsetRows decodes a Resultset Part's row data using the field
// list from a previously-received resultMetadata (spec §4.6; this is
// a prmPartReader because it cannot be decoded without that context).
type resultsetRows struct {
	fields     []*fieldMetadata // set directly, or lazily via md below
	md         *resultMetadata  // when set, fields is read from md.fields at decode time, since
	                             // the ResultMetadata Part decodes earlier in the same reply
	rows       []Row
	attributes partAttributes
}

func (*resultsetRows) kind() PartKind { return PkResultset }
func (*resultsetRows) prm()           {}

// noMoreRows reports whether the server signalled this was the final
// batch for the cursor (spec §4.6 "lazy fetch").
func (r *resultsetRows) noMoreRows() bool { return r.attributes.LastPacket() }

func (r *resultsetRows) decode(dec *encoding.Decoder, ph *partHeader) error {
	r.attributes = ph.attributes
	fields := r.fields
	if r.md != nil {
		fields = r.md.fields
	}
	n := ph.numArg()
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		row := make(Row, len(fields))
		for j, f := range fields {
			v, err := decodeField(dec, f.typeCode)
			if err != nil {
				return err
			}
			row[j] = v
		}
		rows[i] = row
	}
	r.rows = rows
	return dec.Error()
}

// outputParameters decodes the OUT/INOUT parameter values a stored
// procedure call returns, using the OUT fields of a prepared
// statement's parameterMetadata (spec §4.7).
type outputParameters struct {
	fields []*parameterField
	row    Row
}

func (*outputParameters) kind() PartKind { return PkOutputParameters }
func (*outputParameters) prm()           {}

func (o *outputParameters) decode(dec *encoding.Decoder, ph *partHeader) error {
	row := make(Row, len(o.fields))
	for j, f := range o.fields {
		v, err := decodeField(dec, f.typeCode)
		if err != nil {
			return err
		}
		row[j] = v
	}
	o.row = row
	return dec.Error()
}

// inputParameters encodes one row of bind values for an Execute
// request, using the IN fields of a prepared statement's
// parameterMetadata (spec §4.7). LOB parameters carry their first
// chunk inline; only when LobParam.Reserve is set does the server
// reserve a locator, and the remaining bytes follow in subsequent
// WriteLob requests (spec §4.9).
type inputParameters struct {
	fields []*parameterField
	row    Row
}

func (*inputParameters) kind() PartKind { return PkParameters }
func (p *inputParameters) numArg() int  { return 1 }

func (p *inputParameters) size() int {
	// Rough estimate of 16 bytes per field, not an upper bound: string,
	// binary and LOB values can be longer. It does not need to match,
	// since the framer measures the buffer encode actually wrote.
	size := 0
	for range p.fields {
		size += 16
	}
	return size
}

func (p *inputParameters) encode(enc *encoding.Encoder) error {
	for j, f := range p.fields {
		if err := encodeField(enc, f.typeCode, p.row[j]); err != nil {
			return err
		}
	}
	return enc.Error()
}
