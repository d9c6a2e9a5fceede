// Package metrics provides Prometheus metrics for the console backend.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "console"

// PrometheusMetrics holds the registered collectors.
type PrometheusMetrics struct {
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	SyncRuns         *prometheus.CounterVec
	SyncRecords      *prometheus.CounterVec
	PropertyGauge    *prometheus.GaugeVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		UpstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_calls_total",
				Help:      "Adapter requests by service, action and outcome.",
			},
			[]string{"service", "action", "outcome"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_call_duration_seconds",
				Help:      "Time spent handling adapter requests, including the outbound call.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "action"},
		),
		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Property sync runs by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		SyncRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_records_total",
				Help:      "Records processed by the sync, by direction and result.",
			},
			[]string{"direction", "result"},
		),
		PropertyGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "properties",
				Help:      "Property counts from the last sync status check.",
			},
			[]string{"source"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.UpstreamCalls,
		m.UpstreamDuration,
		m.SyncRuns,
		m.SyncRecords,
		m.PropertyGauge,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

// ObserveCall records one adapter request.
func (m *PrometheusMetrics) ObserveCall(service, action, outcome string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(service, action, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service, action).Observe(duration.Seconds())
}

// RecordSync records the result of a sync run in one direction.
func (m *PrometheusMetrics) RecordSync(direction, outcome string, created, updated, failed int) {
	m.SyncRuns.WithLabelValues(direction, outcome).Inc()
	m.SyncRecords.WithLabelValues(direction, "created").Add(float64(created))
	m.SyncRecords.WithLabelValues(direction, "updated").Add(float64(updated))
	m.SyncRecords.WithLabelValues(direction, "errors").Add(float64(failed))
}

// SetPropertyCount sets the property gauge for a source ("database", "notion", "synced").
func (m *PrometheusMetrics) SetPropertyCount(source string, count int64) {
	m.PropertyGauge.WithLabelValues(source).Set(float64(count))
}
