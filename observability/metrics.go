/*
Package observability exposes Prometheus metrics for ingestion and the API.

PURPOSE:
  Counters and histograms for pipeline runs plus per-route HTTP metrics.
  Each Metrics owns its registry, so several instances (tests, embedded
  servers) never collide on registration.

NIL RECEIVER:
  Every method accepts a nil *Metrics and does nothing, so callers that
  do not care about metrics pass nil.
*/
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/timesheet-analytics/timesheet"
)

const namespace = "timesheet"

type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	monthsTotal     *prometheus.CounterVec
	entriesTotal    prometheus.Counter
	warningsTotal   *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	publishFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of ingestion runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		monthsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_months_total",
			Help:      "Months written to the store by upsert action.",
		}, []string{"action"}),
		entriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_entries_total",
			Help:      "Time entries ingested from analytic workbooks.",
		}),
		warningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_warnings_total",
			Help:      "Recoverable ingestion conditions by kind.",
		}, []string{"kind"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_last_success_timestamp_seconds",
			Help:      "Unix time of the last completed ingestion run.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_publish_failures_total",
			Help:      "Month events that could not be published.",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.monthsTotal,
		m.entriesTotal,
		m.warningsTotal,
		m.lastSuccess,
		m.httpRequests,
		m.httpDuration,
		m.publishFailures,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// =============================================================================
// INGESTION
// =============================================================================

// RunFinished records a run outcome.
func (m *Metrics) RunFinished(status timesheet.RunStatus, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(duration.Seconds())
	if status == timesheet.RunCompleted {
		m.lastSuccess.SetToCurrentTime()
	}
}

// MonthWritten counts one upserted month and its entries.
func (m *Metrics) MonthWritten(action timesheet.UpsertAction, entries int) {
	if m == nil {
		return
	}
	m.monthsTotal.WithLabelValues(string(action)).Inc()
	m.entriesTotal.Add(float64(entries))
}

// Warning counts one recoverable condition.
func (m *Metrics) Warning(kind timesheet.WarningKind) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(string(kind)).Inc()
}

// PublishFailed counts one event that was not delivered.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// =============================================================================
// HTTP
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records requests under the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.observe(route, recorder.status, time.Since(start))
	})
}

func (m *Metrics) observe(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
