// Package metrics exposes Prometheus collectors for lookups, admin writes
// and background jobs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rollcall"

// Lookup results
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds all rollcall collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Lookups        *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	AdminWrites    *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	RateLimited    *prometheus.CounterVec
	HTTPRequests   *prometheus.HistogramVec

	ScheduleRows       prometheus.Gauge
	ScheduleLastReload prometheus.Gauge
	ScheduleReloads    *prometheus.CounterVec
	OrphanedSchedules  prometheus.Gauge
}

// New registers every collector on a fresh registry, so several instances
// can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Roll number lookups by result",
		}, []string{"result"}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time to gather and pair a student's schedule",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		AdminWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_writes_total",
			Help:      "Admin write operations by operation and outcome",
		}, []string{"op", "outcome"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Admin login attempts by role (rejected when no match)",
		}, []string{"role"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429 by route",
		}, []string{"route"}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP requests by method, route pattern and status class",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),

		ScheduleRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schedule_rows",
			Help:      "Rows written by the last schedule import",
		}),
		ScheduleLastReload: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schedule_last_reload_timestamp_seconds",
			Help:      "Unix time of the last successful schedule import",
		}),
		ScheduleReloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_reloads_total",
			Help:      "Schedule imports by outcome",
		}, []string{"outcome"}),
		OrphanedSchedules: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_schedule_rows",
			Help:      "Schedule rows whose roll number has no student",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome maps an error to an "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
