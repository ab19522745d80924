// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/sap-hdb-core/hdb/internal/protocol/encoding"

// part is implemented by every Part body.
type part interface {
	kind() PartKind
}

// partWriter is a Part the client can encode into a request.
type partWriter interface {
	part
	numArg() int
	size() int
	encode(enc *encoding.Encoder) error
}

// partReader is a Part the client can decode out of a reply. ph is
// supplied because several Part bodies (e.g. row data) interpret their
// argument count differently depending on kind.
type partReader interface {
	part
	decode(dec *encoding.Decoder, ph *partHeader) error
}

// prmPartReader is a partReader that needs caller-supplied context
// (result/parameter field descriptors) set before decode is invoked.
type prmPartReader interface {
	partReader
	prm()
}
