// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/sap-hdb-core/hdb/internal/protocol/encoding"

// authFields is the wire shape shared by the Authentication request
// and reply Parts: a 2-byte field count followed by that many
// LENIND-prefixed byte strings (method name, salt, client/server
// proof, ...). The whole Part counts as a single Part argument (spec
// §4.4 Authentication handshake).
type authFields [][]byte

func (fs authFields) size() int {
	size := 2
	for _, f := range fs {
		size += encoding.LenIndSize(len(f)) + len(f)
	}
	return size
}

func (fs authFields) encode(enc *encoding.Encoder) error {
	enc.Int16(int16(len(fs)))
	for _, f := range fs {
		enc.EncodeLenInd(len(f))
		enc.Bytes(f)
	}
	return enc.Error()
}

func decodeAuthFields(dec *encoding.Decoder) (authFields, error) {
	n := int(dec.Int16())
	fs := make(authFields, n)
	for i := 0; i < n; i++ {
		size, err := dec.DecodeLenInd()
		if err != nil {
			return nil, err
		}
		if size < 0 {
			fs[i] = nil
			continue
		}
		fs[i] = dec.RawBytes(size)
	}
	return fs, dec.Error()
}

// authInitRequest is the first request of the handshake: the user
// name followed by one (method name, method-specific payload) pair
// per method the client is willing to try.
type authInitRequest struct{ fields authFields }

func (authInitRequest) kind() PartKind         { return PkAuthentication }
func (r authInitRequest) numArg() int          { return 1 }
func (r authInitRequest) size() int            { return r.fields.size() }
func (r authInitRequest) encode(enc *encoding.Encoder) error { return r.fields.encode(enc) }

// authInitReply carries the server's chosen method and its
// method-specific challenge.
type authInitReply struct{ fields authFields }

func (*authInitReply) kind() PartKind { return PkAuthentication }
func (r *authInitReply) decode(dec *encoding.Decoder, ph *partHeader) error {
	fields, err := decodeAuthFields(dec)
	r.fields = fields
	if err != nil {
		return err
	}
	return dec.Error()
}

// authFinalRequest carries the client's proof of the shared secret.
type authFinalRequest struct{ fields authFields }

func (authFinalRequest) kind() PartKind         { return PkAuthentication }
func (r authFinalRequest) numArg() int          { return 1 }
func (r authFinalRequest) size() int            { return r.fields.size() }
func (r authFinalRequest) encode(enc *encoding.Encoder) error { return r.fields.encode(enc) }

// authFinalReply carries the server's proof, confirming it also knows
// the shared secret.
type authFinalReply struct{ fields authFields }

func (*authFinalReply) kind() PartKind { return PkAuthentication }
func (r *authFinalReply) decode(dec *encoding.Decoder, ph *partHeader) error {
	fields, err := decodeAuthFields(dec)
	r.fields = fields
	if err != nil {
		return err
	}
	return dec.Error()
}
