// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPendingCleanupPiggyback verifies the cursor/statement teardown
// policy (spec §3 "sends a CLOSERESULTSET Part piggy-backed on the next
// request", §5 "queues a corresponding drop Part for piggyback on the
// next roundtrip"): a release that has nothing of its own to send just
// queues its Part, and whatever drains the queue next gets all of it,
// once.
func TestPendingCleanupPiggyback(t *testing.T) {
	c := &ConnectionCore{}

	assert.Nil(t, c.drainPending())

	c.enqueuePending(resultsetID(7))
	c.enqueuePending(statementID(9))

	pending := c.drainPending()
	assert.Equal(t, []partWriter{resultsetID(7), statementID(9)}, pending)

	// draining clears the queue: a second drain with nothing newly
	// enqueued finds it empty.
	assert.Nil(t, c.drainPending())
}

func TestCloseResultSetAndDropEnqueueRatherThanRoundtrip(t *testing.T) {
	c := &ConnectionCore{}

	assert.NoError(t, c.CloseResultSet(nil, 42))
	assert.Equal(t, []partWriter{resultsetID(42)}, c.drainPending())

	ps := &PreparedStatementCore{core: c, id: statementID(99)}
	assert.NoError(t, ps.Drop(nil))
	assert.Equal(t, []partWriter{statementID(99)}, c.drainPending())
}
