package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-analytics/observability"
	"github.com/warp/timesheet-analytics/timesheet"
)

func TestNewMetrics_Independent(t *testing.T) {
	// Two instances must not panic on duplicate registration
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestNilMetrics_NoOp(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.RunFinished(timesheet.RunCompleted, time.Second)
		m.MonthWritten(timesheet.ActionInserted, 3)
		m.Warning(timesheet.WarnSlotCollision)
		m.PublishFailed()
	})
}

func TestRunCounters(t *testing.T) {
	m := observability.NewMetrics()
	m.RunFinished(timesheet.RunCompleted, 2*time.Second)
	m.MonthWritten(timesheet.ActionInserted, 10)
	m.MonthWritten(timesheet.ActionUpdated, 5)
	m.Warning(timesheet.WarnMissingManagerial)

	count, err := testutil.GatherAndCount(m.Registry(), "timesheet_ingest_runs_total", "timesheet_ingest_months_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := observability.NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/months/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/months/Dezembro", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `timesheet_http_requests_total{route="/api/months/{id}",status="404"} 1`)
}
