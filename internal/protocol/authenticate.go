// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// roundtripper is the minimal surface authenticate needs from the
// message framer: send a request built from the given Parts, and
// decode the reply into the given Part sinks (spec §4.3 roundtrip).
type roundtripper interface {
	roundtrip(mt MessageType, request []partWriter, reply []partReader) error
}

// authenticate drives the two-roundtrip SCRAM handshake (spec §4.4):
// an init request offering every supported method, then a final
// request carrying the client proof for whichever method the server
// picked. It returns the connectOptions the server echoed back.
func authenticate(rt roundtripper, clientID_ clientID, username, password string) (*connectOptions, error) {
	methods := []authMethod{
		newSCRAMPBKDF2SHA256(password),
		newSCRAMSHA256(password),
	}
	byName := make(map[string]authMethod, len(methods))
	initFields := authFields{[]byte(username)}
	for _, m := range methods {
		byName[m.methodName()] = m
		initFields = append(initFields, []byte(m.methodName()), m.clientChallenge())
	}

	initReq := authInitRequest{fields: initFields}
	initReply := &authInitReply{}
	if err := rt.roundtrip(MtAuthenticate, []partWriter{clientID_, initReq}, []partReader{initReply}); err != nil {
		return nil, err
	}
	if len(initReply.fields) < 2 {
		return nil, fmt.Errorf("protocol: authentication init reply missing method selection")
	}
	chosenName := string(initReply.fields[0])
	method, ok := byName[chosenName]
	if !ok {
		return nil, fmt.Errorf("protocol: server selected unsupported authentication method %q", chosenName)
	}
	serverChallenge := initReply.fields[1:]

	proof, err := method.processServerChallenge(decodeNestedFields(serverChallenge))
	if err != nil {
		return nil, err
	}

	finalReq := authFinalRequest{fields: authFields{[]byte(username), []byte(chosenName), proof}}
	finalReply := &authFinalReply{}
	co := &connectOptions{}
	if err := rt.roundtrip(MtAuthenticate, []partWriter{finalReq}, []partReader{finalReply, co}); err != nil {
		return nil, err
	}
	if err := method.verifyServerProof(decodeNestedFields(finalReply.fields)); err != nil {
		return nil, err
	}
	return co, nil
}

// decodeNestedFields treats the tail of an authFields slice as the
// method-specific challenge/proof payload, passed through unchanged.
// Kept as its own indirection so a future method with a richer nested
// structure only needs to change this one function.
func decodeNestedFields(fields authFields) authFields { return fields }
