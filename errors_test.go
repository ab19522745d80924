// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

func TestWrapCoreErrNil(t *testing.T) {
	assert.Nil(t, wrapCoreErr(nil))
}

func TestWrapCoreErrServer(t *testing.T) {
	he := &p.HdbError{Code: 257, SQLState: "42000", Text: "invalid table name"}
	err := wrapCoreErr(fmt.Errorf("protocol: statement failed: %w", he))

	assert.Equal(t, KindServer, err.Kind)
	if assert.Len(t, err.Server, 1) {
		assert.Equal(t, he, err.Server[0])
	}
	assert.ErrorIs(t, err, he)
}

func TestWrapCoreErrGeneric(t *testing.T) {
	err := wrapCoreErr(errors.New("boom"))
	assert.Equal(t, KindConnectionBroken, err.Kind)
	assert.ErrorContains(t, err, "boom")
}

func TestErrClosedIsUsageKind(t *testing.T) {
	assert.Equal(t, KindUsage, ErrClosed.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "server", KindServer.String())
	assert.Equal(t, "connection broken", KindConnectionBroken.String())
}
