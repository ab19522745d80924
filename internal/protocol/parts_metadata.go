// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/sap-hdb-core/hdb/internal/protocol/encoding"

// fieldMetadata describes one column of a result set (spec §4.6).
type fieldMetadata struct {
	columnOptions  int8
	typeCode       TypeCode
	scale          int16
	length         int16
	tableName      string
	schemaName     string
	columnName     string
	columnDisplayName string
}

const (
	coMandatory int8 = 0x01
	coOptional  int8 = 0x02
	coAutoIncrement int8 = 0x04
)

func (f *fieldMetadata) Nullable() bool { return f.columnOptions&coMandatory == 0 }

// resultMetadata is the Part describing every column returned by a
// query, decoded once per prepared statement / direct execute and
// cached for the lifetime of the cursor (spec §4.6).
type resultMetadata struct {
	fields []*fieldMetadata
	names  []int32 // offsets into the trailing name block, one set per name field
}

func (*resultMetadata) kind() PartKind { return PkResultMetadata }

func (r *resultMetadata) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	r.fields = make([]*fieldMetadata, n)
	nameOfs := make([][4]int32, n)
	for i := 0; i < n; i++ {
		f := &fieldMetadata{}
		f.columnOptions = dec.Int8()
		f.typeCode = TypeCode(dec.Byte())
		f.scale = dec.Int16()
		f.length = dec.Int16()
		dec.Skip(2) // filler
		nameOfs[i] = [4]int32{dec.Int32(), dec.Int32(), dec.Int32(), dec.Int32()}
		r.fields[i] = f
	}
	// Column names trail the fixed-size rows as a pooled CESU-8 block,
	// each referenced by a 4-byte offset (or -1 when absent).
	names := make(map[int32]string)
	resolve := func(ofs int32) string {
		if ofs < 0 {
			return ""
		}
		if s, ok := names[ofs]; ok {
			return s
		}
		size, err := dec.DecodeLenInd()
		if err != nil || size < 0 {
			return ""
		}
		b, cerr := dec.CESU8Bytes(size)
		if cerr != nil {
			return string(b)
		}
		s := string(b)
		names[ofs] = s
		return s
	}
	for i, f := range r.fields {
		f.tableName = resolve(nameOfs[i][0])
		f.schemaName = resolve(nameOfs[i][1])
		f.columnName = resolve(nameOfs[i][2])
		f.columnDisplayName = resolve(nameOfs[i][3])
	}
	return dec.Error()
}

// parameterField describes one bind parameter or output column of a
// prepared statement (spec §4.7).
type parameterField struct {
	parameterOptions int8
	typeCode         TypeCode
	mode             int8 // 1 = IN, 2 = INOUT, 4 = OUT
	scale            int16
	length           int16
	name             string
}

const (
	pfIn    int8 = 0x01
	pfInout int8 = 0x02
	pfOut   int8 = 0x04
)

func (p *parameterField) In() bool  { return p.mode&(pfIn|pfInout) != 0 }
func (p *parameterField) Out() bool { return p.mode&(pfOut|pfInout) != 0 }

// parameterMetadata is the Part describing a prepared statement's bind
// parameters, one entry per placeholder in declaration order (spec
// §4.7).
type parameterMetadata struct {
	fields []*parameterField
}

func (*parameterMetadata) kind() PartKind { return PkParameterMetadata }

func (p *parameterMetadata) decode(dec *encoding.Decoder, ph *partHeader) error {
	n := ph.numArg()
	p.fields = make([]*parameterField, n)
	nameOfs := make([]int32, n)
	for i := 0; i < n; i++ {
		f := &parameterField{}
		f.parameterOptions = dec.Int8()
		f.typeCode = TypeCode(dec.Byte())
		f.mode = dec.Int8()
		dec.Skip(1) // filler
		nameOfs[i] = dec.Int32()
		f.scale = dec.Int16()
		f.length = dec.Int16()
		dec.Skip(4) // filler
		p.fields[i] = f
	}
	names := make(map[int32]string)
	for i, f := range p.fields {
		ofs := nameOfs[i]
		if ofs < 0 {
			continue
		}
		if s, ok := names[ofs]; ok {
			f.name = s
			continue
		}
		size, err := dec.DecodeLenInd()
		if err != nil || size < 0 {
			continue
		}
		b, cerr := dec.CESU8Bytes(size)
		if cerr == nil {
			names[ofs] = string(b)
			f.name = string(b)
		}
	}
	return dec.Error()
}
