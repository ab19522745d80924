// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

// optionValue is one value in a key/value options Part (ConnectOptions,
// ClientContext, ClientInfo, DBConnectInfo, TopologyInformation,
// StatementContext all share this wire shape: repeated
// {key int8, optionTypeCode int8, value}).
type optionValue interface {
	optTypeCode() int8
	size() int
	encode(enc *encoding.Encoder)
}

const (
	otBoolean int8 = 28
	otInt     int8 = 3
	otBigint  int8 = 4
	otDouble  int8 = 7
	otString  int8 = 29
	otBytes   int8 = 30
)

type optBooleanType bool

func (optBooleanType) optTypeCode() int8 { return otBoolean }
func (optBooleanType) size() int         { return 1 }
func (v optBooleanType) encode(enc *encoding.Encoder) { enc.Bool(bool(v)) }

type optIntType int32

func (optIntType) optTypeCode() int8 { return otInt }
func (optIntType) size() int         { return 4 }
func (v optIntType) encode(enc *encoding.Encoder) { enc.Int32(int32(v)) }

type optBigintType int64

func (optBigintType) optTypeCode() int8 { return otBigint }
func (optBigintType) size() int         { return 8 }
func (v optBigintType) encode(enc *encoding.Encoder) { enc.Int64(int64(v)) }

type optDoubleType float64

func (optDoubleType) optTypeCode() int8 { return otDouble }
func (optDoubleType) size() int         { return 8 }
func (v optDoubleType) encode(enc *encoding.Encoder) { enc.Float64(float64(v)) }

type optStringType string

func (optStringType) optTypeCode() int8 { return otString }
func (v optStringType) size() int       { return 2 + len(v) }
func (v optStringType) encode(enc *encoding.Encoder) {
	enc.Int16(int16(len(v)))
	enc.String(string(v))
}

type optBytesType []byte

func (optBytesType) optTypeCode() int8 { return otBytes }
func (v optBytesType) size() int       { return 2 + len(v) }
func (v optBytesType) encode(enc *encoding.Encoder) {
	enc.Int16(int16(len(v)))
	enc.Bytes(v)
}

func decodeOptionValue(dec *encoding.Decoder, tc int8) (optionValue, error) {
	switch tc {
	case otBoolean:
		return optBooleanType(dec.Bool()), nil
	case otInt:
		return optIntType(dec.Int32()), nil
	case otBigint:
		return optBigintType(dec.Int64()), nil
	case otDouble:
		return optDoubleType(dec.Float64()), nil
	case otString:
		n := int(dec.Int16())
		p := dec.RawBytes(n)
		return optStringType(p), nil
	case otBytes:
		n := int(dec.Int16())
		p := dec.RawBytes(n)
		return optBytesType(p), nil
	default:
		return nil, fmt.Errorf("protocol: unknown option value type %d", tc)
	}
}

// plainOptions is a decoded key/value options Part.
type plainOptions map[int8]optionValue

func (o plainOptions) size() int {
	size := 0
	for _, v := range o {
		size += 2 + v.size() // key + typecode byte
	}
	return size
}

func (o plainOptions) numArg() int { return len(o) }

func (o plainOptions) encode(enc *encoding.Encoder) error {
	for k, v := range o {
		enc.Int8(k)
		enc.Int8(v.optTypeCode())
		v.encode(enc)
	}
	return enc.Error()
}

func (o *plainOptions) decode(dec *encoding.Decoder, numArg int) error {
	opts := make(plainOptions, numArg)
	for i := 0; i < numArg; i++ {
		key := dec.Int8()
		tc := dec.Int8()
		v, err := decodeOptionValue(dec, tc)
		if err != nil {
			return err
		}
		opts[key] = v
	}
	*o = opts
	return dec.Error()
}

func (o plainOptions) asString(k int8) string {
	if v, ok := o[k]; ok {
		if s, ok := v.(optStringType); ok {
			return string(s)
		}
	}
	return ""
}

func (o plainOptions) asInt(k int8) int {
	if v, ok := o[k]; ok {
		switch v := v.(type) {
		case optIntType:
			return int(v)
		case optBigintType:
			return int(v)
		}
	}
	return 0
}

func (o plainOptions) asBool(k int8) bool {
	if v, ok := o[k]; ok {
		if b, ok := v.(optBooleanType); ok {
			return bool(b)
		}
	}
	return false
}

// ---- concrete options Parts, all sharing the plainOptions wire shape ----

// connectOptions is negotiated in both directions during CONNECT:
// client proposes, server may override (spec §4.4, §4.5).
type connectOptions struct{ plainOptions }

func (connectOptions) kind() PartKind { return PkConnectOptions }
func (o connectOptions) numArg() int  { return o.plainOptions.numArg() }
func (o connectOptions) size() int    { return o.plainOptions.size() }
func (o connectOptions) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }
func (o *connectOptions) decode(dec *encoding.Decoder, ph *partHeader) error {
	return o.plainOptions.decode(dec, ph.numArg())
}

const (
	coConnectionID           int8 = 1
	coClientLocale           int8 = 2
	coSplitBatchCommands     int8 = 10
	coDataFormatVersion2     int8 = 12
	coCompleteArrayExecution int8 = 17
	coDistributionProtocol   int8 = 3
	coSelectForUpdateOK      int8 = 14
	coClientDistributionMode int8 = 19
	coFullVersionString      int8 = 18
	coDatabaseName           int8 = 28
)

func (o connectOptions) fullVersionString() string { return o.asString(coFullVersionString) }

// clientContext is sent once, as the first Part of the authentication
// handshake (spec §4.4), identifying this driver build.
type clientContext struct{ plainOptions }

func (clientContext) kind() PartKind { return PkClientContext }
func (o clientContext) numArg() int  { return o.plainOptions.numArg() }
func (o clientContext) size() int    { return o.plainOptions.size() }
func (o clientContext) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }

const (
	ccoClientVersion            int8 = 1
	ccoClientType               int8 = 2
	ccoClientApplicationProgram int8 = 3
)

// clientInfo carries application-supplied session variables,
// piggy-backed onto the first request of a statement-capable message
// type (spec §9).
type clientInfo map[string]string

func (clientInfo) kind() PartKind { return PkClientInfo }
func (ci clientInfo) numArg() int { return len(ci) }
func (ci clientInfo) size() int {
	size := 0
	for k, v := range ci {
		size += 2 + len(k) + len(v)
	}
	return size
}
func (ci clientInfo) encode(enc *encoding.Encoder) error {
	for k, v := range ci {
		enc.Byte(byte(len(k)))
		enc.String(k)
		enc.Byte(byte(len(v)))
		enc.String(v)
	}
	return enc.Error()
}

// dbConnectInfo is exchanged to discover or signal a tenant redirect
// target (spec §4.4 Redirect).
type dbConnectInfo struct{ plainOptions }

func (dbConnectInfo) kind() PartKind { return PkDBConnectInfo }
func (o dbConnectInfo) numArg() int  { return o.plainOptions.numArg() }
func (o dbConnectInfo) size() int    { return o.plainOptions.size() }
func (o dbConnectInfo) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }
func (o *dbConnectInfo) decode(dec *encoding.Decoder, ph *partHeader) error {
	return o.plainOptions.decode(dec, ph.numArg())
}

const (
	ciDatabaseName int8 = 1
	ciHost         int8 = 2
	ciPort         int8 = 3
	ciIsConnected  int8 = 4
)

// topologyInformation describes the HANA landscape (hosts, ports,
// service types). Parsed and exposed but only ever acted on for the
// single redirect the core honors (spec §1 Non-goals).
type topologyInformation struct{ plainOptions }

func (*topologyInformation) kind() PartKind { return PkTopologyInformation }
func (o *topologyInformation) decode(dec *encoding.Decoder, ph *partHeader) error {
	return o.plainOptions.decode(dec, ph.numArg())
}

// statementContext is the opaque cookie a server may attach to a reply
// that must be echoed verbatim on the next request of the same
// logical operation (spec §4.5, §9 Open Question: absence is
// tolerated by keeping the previous token).
type statementContext struct{ plainOptions }

func (statementContext) kind() PartKind { return PkStatementContext }
func (o statementContext) numArg() int  { return o.plainOptions.numArg() }
func (o statementContext) size() int    { return o.plainOptions.size() }
func (o statementContext) encode(enc *encoding.Encoder) error { return o.plainOptions.encode(enc) }
func (o *statementContext) decode(dec *encoding.Decoder, ph *partHeader) error {
	return o.plainOptions.decode(dec, ph.numArg())
}
