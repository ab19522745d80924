// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package collectors implements prometheus collectors for
// github.com/sap-hdb-core/hdb connections.
package collectors

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	hdb "github.com/sap-hdb-core/hdb"
)

const namespace = "hdb_core"

type statser interface {
	Stats() hdb.Stats
}

type collector struct {
	s statser

	openStatements  *prometheus.Desc
	openResultSets  *prometheus.Desc
	bytesRead       *prometheus.Desc
	bytesWritten    *prometheus.Desc
}

func newCollector(s statser, subsystem string, labels prometheus.Labels) prometheus.Collector {
	fqName := func(name string) string { return strings.Join([]string{namespace, subsystem, name}, "_") }
	return &collector{
		s: s,
		openStatements: prometheus.NewDesc(
			fqName("open_statements"),
			"The number of prepared statements not yet closed.",
			nil, labels,
		),
		openResultSets: prometheus.NewDesc(
			fqName("open_result_sets"),
			"The number of result sets not yet closed.",
			nil, labels,
		),
		bytesRead: prometheus.NewDesc(
			fqName("bytes_read"),
			"Total bytes read from the connection's socket.",
			nil, labels,
		),
		bytesWritten: prometheus.NewDesc(
			fqName("bytes_written"),
			"Total bytes written to the connection's socket.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openStatements
	ch <- c.openResultSets
	ch <- c.bytesRead
	ch <- c.bytesWritten
}

// Collect implements prometheus.Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	s := c.s.Stats()
	ch <- prometheus.MustNewConstMetric(c.openStatements, prometheus.GaugeValue, float64(s.OpenStatements))
	ch <- prometheus.MustNewConstMetric(c.openResultSets, prometheus.GaugeValue, float64(s.OpenResultSets))
	ch <- prometheus.MustNewConstMetric(c.bytesRead, prometheus.CounterValue, float64(s.BytesRead))
	ch <- prometheus.MustNewConstMetric(c.bytesWritten, prometheus.CounterValue, float64(s.BytesWritten))
}

// NewConnectionCollector returns a collector that exports *hdb.Connection metrics.
func NewConnectionCollector(conn *hdb.Connection, dbName string) prometheus.Collector {
	return newCollector(conn, "connection", prometheus.Labels{"db_name": dbName})
}
