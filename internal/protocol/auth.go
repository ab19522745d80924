// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// authMethod implements one SCRAM-family credential exchange. The
// session core drives every method through the same three-step
// sequence regardless of which one the server picks (spec §4.4):
// clientChallenge, then consume the server's challenge and produce the
// client proof, then verify the server's own proof.
type authMethod interface {
	methodName() string
	clientChallenge() []byte
	processServerChallenge(serverChallenge authFields) ([]byte, error)
	verifyServerProof(serverProof authFields) error
}

func clientNonce() []byte {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failing means the OS entropy source is broken
	}
	return b
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// scramsha256 implements HANA's SCRAMSHA256 method: a single
// HMAC-SHA256 round salts the password, no PBKDF2 iteration (spec §4.4
// Authentication, method "SCRAMSHA256").
type scramsha256 struct {
	password       string
	nonce          []byte
	saltedPassword []byte
	authMsg        []byte
}

func newSCRAMSHA256(password string) *scramsha256 {
	return &scramsha256{password: password, nonce: clientNonce()}
}

func (a *scramsha256) methodName() string       { return "SCRAMSHA256" }
func (a *scramsha256) clientChallenge() []byte  { return a.nonce }

func (a *scramsha256) processServerChallenge(serverChallenge authFields) ([]byte, error) {
	if len(serverChallenge) < 2 {
		return nil, fmt.Errorf("protocol: SCRAMSHA256 server challenge missing salt/nonce fields")
	}
	salt := serverChallenge[0]
	serverNonce := serverChallenge[1]

	a.saltedPassword = hmacSHA256(salt, []byte(a.password))
	clientKey := hmacSHA256(a.saltedPassword, []byte("Client Key"))
	storedKey := sha256Sum(clientKey)

	a.authMsg = append(append([]byte{}, a.nonce...), serverNonce...)
	clientSignature := hmacSHA256(storedKey, a.authMsg)
	clientProof := xorBytes(clientKey, clientSignature)
	return clientProof, nil
}

func (a *scramsha256) verifyServerProof(serverProof authFields) error {
	if len(serverProof) < 1 {
		return fmt.Errorf("protocol: SCRAMSHA256 final reply missing server proof")
	}
	serverKey := hmacSHA256(a.saltedPassword, []byte("Server Key"))
	expected := hmacSHA256(serverKey, a.authMsg)
	if !constantTimeEqual(expected, serverProof[0]) {
		return fmt.Errorf("protocol: SCRAMSHA256 server proof mismatch")
	}
	return nil
}

// scrampbkdf2sha256 implements HANA's SCRAMPBKDF2SHA256 method: the
// server additionally supplies a PBKDF2 round count, used in place of
// the single HMAC round (spec §4.4).
type scrampbkdf2sha256 struct {
	password       string
	nonce          []byte
	saltedPassword []byte
	authMsg        []byte
}

func newSCRAMPBKDF2SHA256(password string) *scrampbkdf2sha256 {
	return &scrampbkdf2sha256{password: password, nonce: clientNonce()}
}

func (a *scrampbkdf2sha256) methodName() string      { return "SCRAMPBKDF2SHA256" }
func (a *scrampbkdf2sha256) clientChallenge() []byte { return a.nonce }

func (a *scrampbkdf2sha256) processServerChallenge(serverChallenge authFields) ([]byte, error) {
	if len(serverChallenge) < 3 {
		return nil, fmt.Errorf("protocol: SCRAMPBKDF2SHA256 server challenge missing salt/rounds/nonce fields")
	}
	salt := serverChallenge[0]
	roundsBytes := serverChallenge[1]
	serverNonce := serverChallenge[2]
	if len(roundsBytes) != 4 {
		return nil, fmt.Errorf("protocol: SCRAMPBKDF2SHA256 malformed round count field")
	}
	rounds := int(binary.BigEndian.Uint32(roundsBytes))

	a.saltedPassword = pbkdf2.Key([]byte(a.password), salt, rounds, sha256.Size, sha256.New)
	clientKey := hmacSHA256(a.saltedPassword, []byte("Client Key"))
	storedKey := sha256Sum(clientKey)

	a.authMsg = append(append([]byte{}, a.nonce...), serverNonce...)
	clientSignature := hmacSHA256(storedKey, a.authMsg)
	clientProof := xorBytes(clientKey, clientSignature)
	return clientProof, nil
}

func (a *scrampbkdf2sha256) verifyServerProof(serverProof authFields) error {
	if len(serverProof) < 1 {
		return fmt.Errorf("protocol: SCRAMPBKDF2SHA256 final reply missing server proof")
	}
	serverKey := hmacSHA256(a.saltedPassword, []byte("Server Key"))
	expected := hmacSHA256(serverKey, a.authMsg)
	if !constantTimeEqual(expected, serverProof[0]) {
		return fmt.Errorf("protocol: SCRAMPBKDF2SHA256 server proof mismatch")
	}
	return nil
}

// redirectError signals that a DBConnectInfo Part in the reply names a
// different host/port; the session core retries the connect exactly
// once against that target (spec §4.4 Redirect, §9 Open Question:
// redirect retry bound).
type redirectError struct {
	host string
	port int32
}

func (e *redirectError) Error() string {
	return fmt.Sprintf("protocol: redirected to %s:%d", e.host, e.port)
}

// constantTimeEqual compares two byte slices without leaking timing
// information about where they first differ (server-proof check).
func constantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}
