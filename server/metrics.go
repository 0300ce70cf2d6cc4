// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsCollector exposes per-pair scheduler state to prometheus. Values
// are read from the scheduler snapshots at scrape time, so the trading path
// carries no metrics code.
type metricsCollector struct {
	server *Server

	bufferDesc   *prometheus.Desc
	nextTickDesc *prometheus.Desc
	tradesDesc   *prometheus.Desc
	failuresDesc *prometheus.Desc
}

var _ prometheus.Collector = (*metricsCollector)(nil)

func newMetricsCollector(s *Server) *metricsCollector {
	labels := []string{"exchange", "pair"}
	return &metricsCollector{
		server: s,
		bufferDesc: prometheus.NewDesc("dcabot_spend_buffer",
			"Accumulated quote-currency spend buffer", labels, nil),
		nextTickDesc: prometheus.NewDesc("dcabot_next_tick_timestamp_seconds",
			"Unix time of the next scheduled tick", labels, nil),
		tradesDesc: prometheus.NewDesc("dcabot_trades_total",
			"Completed purchases", labels, nil),
		failuresDesc: prometheus.NewDesc("dcabot_trade_failures_total",
			"Failed purchase attempts", labels, nil),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bufferDesc
	ch <- c.nextTickDesc
	ch <- c.tradesDesc
	ch <- c.failuresDesc
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, status := range c.server.Status() {
		labels := []string{status.Exchange, status.Pair}
		ch <- prometheus.MustNewConstMetric(c.bufferDesc, prometheus.GaugeValue,
			status.Buffer.InexactFloat64(), labels...)
		var next float64
		if !status.NextTick.IsZero() {
			next = float64(status.NextTick.Unix())
		}
		ch <- prometheus.MustNewConstMetric(c.nextTickDesc, prometheus.GaugeValue,
			next, labels...)
		ch <- prometheus.MustNewConstMetric(c.tradesDesc, prometheus.CounterValue,
			float64(status.Trades), labels...)
		ch <- prometheus.MustNewConstMetric(c.failuresDesc, prometheus.CounterValue,
			float64(status.Failures), labels...)
	}
}
