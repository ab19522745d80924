// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import "sync/atomic"

// Stats is a point-in-time snapshot of one Connection's resource
// usage, consumed directly or exported via
// github.com/sap-hdb-core/hdb/prometheus/collectors (spec's ambient
// observability stack, carried forward even though §1 scopes metrics
// collection itself outside the protocol core).
type Stats struct {
	OpenStatements  int64
	OpenResultSets  int64
	BytesRead       int64
	BytesWritten    int64
}

// Stats returns a snapshot of this Connection's counters.
func (c *Connection) Stats() Stats {
	return Stats{
		OpenStatements: c.openStatements.Load(),
		OpenResultSets: c.openResultSets.Load(),
		BytesRead:      c.core.BytesRead(),
		BytesWritten:   c.core.BytesWritten(),
	}
}

// statCounters is embedded in Connection to track live handle counts
// without adding a lock to the hot path (spec §5 "no global mutable
// state inside the driver" — these counters are per-Connection, not
// shared).
type statCounters struct {
	openStatements atomic.Int64
	openResultSets atomic.Int64
}
