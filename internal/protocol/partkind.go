// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// PartKind tags the body of a Part (spec §3, §4.2). Roughly 40 kinds
// are defined by the wire protocol; this core implements the ones
// exercised by the operations in §4.5-§4.8 and skips any other kind
// by buffer length (spec invariant: unknown kinds never abort a
// reply).
type PartKind int8

const (
	PkNil                 PartKind = 0
	PkCommand             PartKind = 3
	PkResultset           PartKind = 5
	PkError               PartKind = 6
	PkStatementID         PartKind = 10
	PkTransactionFlags    PartKind = 11
	PkRowsAffected        PartKind = 12
	PkResultsetID         PartKind = 13
	PkTopologyInformation PartKind = 15
	PkTableLocation       PartKind = 16
	PkReadLobRequest      PartKind = 17
	PkReadLobReply        PartKind = 18
	PkClientContext       PartKind = 25
	PkCommandInfo         PartKind = 27
	PkWriteLobRequest     PartKind = 28
	PkClientID            PartKind = 29
	PkWriteLobReply       PartKind = 30
	PkParameters          PartKind = 32
	PkAuthentication      PartKind = 33
	PkSessionContext      PartKind = 34
	PkClientInfo          PartKind = 35
	PkStatementContext    PartKind = 39
	PkParameterMetadata   PartKind = 42
	PkResultMetadata      PartKind = 43
	PkFetchSize           PartKind = 45
	PkOutputParameters    PartKind = 48
	PkFetchOptions        PartKind = 49
	PkConnectOptions      PartKind = 55
	PkCommitOptions       PartKind = 56
	PkDBConnectInfo       PartKind = 67
)

var partKindNames = map[PartKind]string{
	PkCommand: "Command", PkResultset: "ResultSet", PkError: "Error",
	PkStatementID: "StatementID", PkTransactionFlags: "TransactionFlags",
	PkRowsAffected: "RowsAffected", PkResultsetID: "ResultSetID",
	PkTopologyInformation: "TopologyInformation", PkTableLocation: "TableLocation",
	PkReadLobRequest: "ReadLobRequest", PkReadLobReply: "ReadLobReply",
	PkClientContext: "ClientContext", PkCommandInfo: "CommandInfo",
	PkWriteLobRequest: "WriteLobRequest", PkClientID: "ClientID",
	PkWriteLobReply: "WriteLobReply", PkParameters: "Parameters",
	PkAuthentication: "Authentication", PkSessionContext: "SessionContext",
	PkClientInfo: "ClientInfo", PkStatementContext: "StatementContext",
	PkParameterMetadata: "ParameterMetadata", PkResultMetadata: "ResultMetadata",
	PkFetchSize: "FetchSize", PkOutputParameters: "OutputParameters",
	PkFetchOptions: "FetchOptions", PkConnectOptions: "ConnectOptions",
	PkCommitOptions: "CommitOptions", PkDBConnectInfo: "DBConnectInfo",
}

func (k PartKind) String() string {
	if s, ok := partKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PartKind(%d)", int8(k))
}

// FunctionCode identifies the server-side operation a request/reply
// pair implements (echoed in the reply, §3).
type FunctionCode int16

const (
	FcNil               FunctionCode = 0
	FcDDL               FunctionCode = 10
	FcInsert            FunctionCode = 11
	FcUpdate            FunctionCode = 12
	FcDelete            FunctionCode = 13
	FcSelect            FunctionCode = 14
	FcSelectForUpdate   FunctionCode = 16
	FcExecute           FunctionCode = 17
	FcConnect           FunctionCode = 19
	FcCommit            FunctionCode = 2
	FcRollback          FunctionCode = 3
	FcDisconnect        FunctionCode = 18
	FcDBProcedureCall   FunctionCode = 23
	FcFetch             FunctionCode = 5
	FcCloseResultSet    FunctionCode = 7
	FcDropStatementID   FunctionCode = 8
	FcNone              FunctionCode = -1
)

// MessageType selects the server-side request handler (roughly one
// per Session-core operation, §4.5).
type MessageType int8

const (
	MtNil               MessageType = 0
	MtConnect           MessageType = 1
	MtDisconnect        MessageType = 2
	MtExecuteDirect     MessageType = 3
	MtPrepare           MessageType = 4
	MtExecute           MessageType = 13
	MtReadLob           MessageType = 16
	MtWriteLob          MessageType = 17
	MtFetchNext         MessageType = 5
	MtFindLob           MessageType = 18
	MtCloseResultset    MessageType = 19
	MtDropStatementID   MessageType = 20
	MtCommit            MessageType = 7
	MtRollback          MessageType = 8
	MtAuthenticate      MessageType = 65
	MtDBConnectInfo     MessageType = 82
)

// ClientInfoSupported reports whether the server accepts a piggy-backed
// ClientInfo Part on the first request of type mt (spec §9 "session
// variables as ClientInfo").
func (mt MessageType) ClientInfoSupported() bool {
	switch mt {
	case MtExecuteDirect, MtPrepare, MtExecute:
		return true
	default:
		return false
	}
}

func (mt MessageType) String() string {
	if s, ok := messageTypeNames[mt]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%d)", int8(mt))
}

var messageTypeNames = map[MessageType]string{
	MtNil: "NIL", MtConnect: "CONNECT", MtDisconnect: "DISCONNECT",
	MtExecuteDirect: "EXECUTEDIRECT", MtPrepare: "PREPARE", MtExecute: "EXECUTE",
	MtReadLob: "READLOB", MtWriteLob: "WRITELOB", MtFetchNext: "FETCHNEXT",
	MtFindLob: "FINDLOB", MtCloseResultset: "CLOSERESULTSET",
	MtDropStatementID: "DROPSTATEMENTID", MtCommit: "COMMIT", MtRollback: "ROLLBACK",
	MtAuthenticate: "AUTHENTICATE", MtDBConnectInfo: "DBCONNECTINFO",
}

// SegmentKind tags a segment header (spec §3): a request always
// carries exactly one Request segment; a reply carries one or more
// Reply (or Error) segments.
type SegmentKind int8

const (
	SkRequest SegmentKind = 1
	SkReply   SegmentKind = 2
	SkError   SegmentKind = 5
)
