// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// ColumnDescriptor is the public shape of one result-set column,
// derived from a decoded resultMetadata entry (spec §4.6).
type ColumnDescriptor struct {
	Name       string
	TableName  string
	SchemaName string
	TypeCode   TypeCode
	Nullable   bool
	Scale      int16
	Length     int16
}

func (f *fieldMetadata) Descriptor() ColumnDescriptor {
	return ColumnDescriptor{
		Name:       f.columnName,
		TableName:  f.tableName,
		SchemaName: f.schemaName,
		TypeCode:   f.typeCode,
		Nullable:   f.Nullable(),
		Scale:      f.scale,
		Length:     f.length,
	}
}

// ParameterDescriptor is the public shape of one bind parameter or OUT
// column of a prepared statement, derived from a decoded
// parameterMetadata entry (spec §4.7).
type ParameterDescriptor struct {
	Name     string
	TypeCode TypeCode
	In       bool
	Out      bool
	Scale    int16
	Length   int16
}

func (f *parameterField) Descriptor() ParameterDescriptor {
	return ParameterDescriptor{
		Name:     f.name,
		TypeCode: f.typeCode,
		In:       f.In(),
		Out:      f.Out(),
		Scale:    f.scale,
		Length:   f.length,
	}
}
