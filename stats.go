// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import "github.com/prometheus/client_golang/prometheus"

// Stats mirrors §3's statistics counters. Reading it concurrently with a
// mutator is the same best-effort arrangement the spec gives Search: the
// table has a single-writer contract (§5) and Stats is plain data, not a
// snapshot guarantee.
type Stats struct {
	BtrieNodeAllocs  int64
	MtrieBlockAllocs int64
	RouteCount       int64
	DataPerMasklen   [maxMaskLen + 1]int64
}

// DataTotal is the sum of DataPerMasklen, checked against RouteCount by the
// property tests (spec invariant 6).
func (s Stats) DataTotal() int64 {
	var total int64
	for _, n := range s.DataPerMasklen {
		total += n
	}
	return total
}

// Collector exposes a Table's Statistics as Prometheus gauges, grounded on
// the way optakt-flow-dps's metrics/output package wraps an internal
// counter set for an external sink. It is a thin, separately-constructed
// adapter: the core never imports prometheus outside this file.
type Collector struct {
	table *Table

	btrieNodes  *prometheus.Desc
	mtrieBlocks *prometheus.Desc
	routes      *prometheus.Desc
}

// NewCollector wraps t for Prometheus registration.
func NewCollector(t *Table, namespace string) *Collector {
	return &Collector{
		table: t,
		btrieNodes: prometheus.NewDesc(
			namespace+"_btrie_nodes", "Live 1-trie node count.", nil, nil),
		mtrieBlocks: prometheus.NewDesc(
			namespace+"_mtrie_blocks", "Live m-trie block count.", nil, nil),
		routes: prometheus.NewDesc(
			namespace+"_routes", "Stored prefix count.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.btrieNodes
	ch <- c.mtrieBlocks
	ch <- c.routes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.table.Statistics()
	ch <- prometheus.MustNewConstMetric(c.btrieNodes, prometheus.GaugeValue, float64(s.BtrieNodeAllocs))
	ch <- prometheus.MustNewConstMetric(c.mtrieBlocks, prometheus.GaugeValue, float64(s.MtrieBlockAllocs))
	ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(s.RouteCount))
}
