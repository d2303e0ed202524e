// Package metrics provides Prometheus metrics for the worktime server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TimersStarted   prometheus.Counter
	TimerConflicts  prometheus.Counter
	SkippedEntries  prometheus.Counter
	OverlapPairs    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worktime_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worktime_http_request_duration_seconds",
				Help:    "HTTP request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		TimersStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "worktime_timers_started_total",
				Help: "Total number of timers started.",
			},
		),
		TimerConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "worktime_timer_conflicts_total",
				Help: "Timer starts rejected because another timer was already running.",
			},
		),
		SkippedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "worktime_malformed_entries_skipped_total",
				Help: "Entries left out of aggregations because they had no start time.",
			},
		),
		OverlapPairs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "worktime_overlap_pairs_total",
				Help: "Overlapping entry pairs found while building reports.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worktime_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.TimersStarted)
	reg.MustRegister(m.TimerConflicts)
	reg.MustRegister(m.SkippedEntries)
	reg.MustRegister(m.OverlapPairs)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest counts a finished request and its duration.
func (m *Metrics) RecordRequest(route, method, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// RecordReport records what a report build found.
func (m *Metrics) RecordReport(skipped, overlapPairs int) {
	m.SkippedEntries.Add(float64(skipped))
	m.OverlapPairs.Add(float64(overlapPairs))
}
