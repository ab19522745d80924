// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// TypeCode identifies the wire type of a field or parameter, per §3 of
// the protocol: one of ~25 scalar variants. The high bit of the wire
// byte (or, for BOOLEAN and SECONDTIME, a distinct sentinel value)
// signals NULL.
type TypeCode byte

const (
	TcNull        TypeCode = 0x00
	TcTinyint     TypeCode = 0x01
	TcSmallint    TypeCode = 0x02
	TcInt         TypeCode = 0x03
	TcBigint      TypeCode = 0x04
	TcDecimal     TypeCode = 0x05
	TcReal        TypeCode = 0x06
	TcDouble      TypeCode = 0x07
	TcChar        TypeCode = 0x08
	TcVarchar     TypeCode = 0x09
	TcNChar       TypeCode = 0x0A
	TcNVarchar    TypeCode = 0x0B
	TcBinary      TypeCode = 0x0C
	TcVarbinary   TypeCode = 0x0D
	TcDate        TypeCode = 0x0E
	TcTime        TypeCode = 0x0F
	TcTimestamp   TypeCode = 0x10
	TcClob        TypeCode = 0x19
	TcNClob       TypeCode = 0x1A
	TcBlob        TypeCode = 0x1B
	TcBoolean     TypeCode = 0x1C
	TcString      TypeCode = 0x1D
	TcNString     TypeCode = 0x1E
	TcBintext     TypeCode = 0x35
	TcAlphanum    TypeCode = 0x37
	TcLongdate    TypeCode = 0x3D // TIMESTAMP (100ns ticks since 0001-01-01)
	TcSeconddate  TypeCode = 0x3E
	TcDaydate     TypeCode = 0x3F
	TcSecondtime  TypeCode = 0x40
	TcStGeometry  TypeCode = 0x4A
	TcStPoint     TypeCode = 0x4B
	TcFixed16     TypeCode = 0x4C // DECIMAL(38)
	TcFixed8      TypeCode = 0x51 // DECIMAL(18)
	TcFixed12     TypeCode = 0x52 // DECIMAL(28)
	TcText        TypeCode = 0x33

	// special NULL sentinels that do not simply set the high bit.
	tcSecondtimeNull TypeCode = 0xB0
)

// IsLob reports whether tc is transferred by locator rather than
// inline bytes.
func (tc TypeCode) IsLob() bool {
	switch tc {
	case TcClob, TcNClob, TcBlob, TcText, TcBintext:
		return true
	default:
		return false
	}
}

func (tc TypeCode) isDecimal() bool {
	return tc == TcDecimal || tc == TcFixed8 || tc == TcFixed12 || tc == TcFixed16
}

// NullTypeCode returns the wire byte signalling a NULL value of type
// tc.
func (tc TypeCode) NullTypeCode() TypeCode {
	if tc == TcSecondtime {
		return tcSecondtimeNull
	}
	return tc | 0x80
}

// IsNullTypeCode reports whether wire byte w, read in a context
// expecting base type tc, denotes NULL.
func (tc TypeCode) IsNullTypeCode(w TypeCode) bool {
	if tc == TcSecondtime {
		return w == tcSecondtimeNull
	}
	return w&0x80 != 0
}

func (tc TypeCode) String() string {
	if s, ok := typeCodeNames[tc]; ok {
		return s
	}
	return fmt.Sprintf("TypeCode(%#x)", byte(tc))
}

var typeCodeNames = map[TypeCode]string{
	TcNull: "NULL", TcTinyint: "TINYINT", TcSmallint: "SMALLINT", TcInt: "INT",
	TcBigint: "BIGINT", TcDecimal: "DECIMAL", TcReal: "REAL", TcDouble: "DOUBLE",
	TcChar: "CHAR", TcVarchar: "VARCHAR", TcNChar: "NCHAR", TcNVarchar: "NVARCHAR",
	TcBinary: "BINARY", TcVarbinary: "VARBINARY", TcDate: "DATE", TcTime: "TIME",
	TcTimestamp: "TIMESTAMP", TcClob: "CLOB", TcNClob: "NCLOB", TcBlob: "BLOB",
	TcBoolean: "BOOLEAN", TcString: "STRING", TcNString: "NSTRING", TcBintext: "BINTEXT",
	TcAlphanum: "ALPHANUM", TcLongdate: "LONGDATE", TcSeconddate: "SECONDDATE",
	TcDaydate: "DAYDATE", TcSecondtime: "SECONDTIME", TcStGeometry: "ST_GEOMETRY",
	TcStPoint: "ST_POINT", TcFixed16: "FIXED16", TcFixed8: "FIXED8", TcFixed12: "FIXED12",
	TcText: "TEXT",
}
