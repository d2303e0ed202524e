package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.RequestsTotal)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.TimersStarted)
	assert.NotNil(t, m.TimerConflicts)
	assert.NotNil(t, m.ErrorsTotal)
	assert.NotNil(t, m.Registry())
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("/api/v1/projects", "GET", "200", 0.01)
	m.RecordRequest("/api/v1/projects", "GET", "200", 0.02)
	m.RecordRequest("/api/v1/time-entries/start", "POST", "409", 0.01)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `worktime_http_requests_total{method="GET",route="/api/v1/projects",status="200"} 2`)
	assert.Contains(t, body, `worktime_http_requests_total{method="POST",route="/api/v1/time-entries/start",status="409"} 1`)
	assert.Contains(t, body, "worktime_http_request_duration_seconds")
}

func TestMetrics_RecordReport(t *testing.T) {
	m := New()
	m.RecordReport(2, 3)
	m.RecordReport(0, 1)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "worktime_malformed_entries_skipped_total 2")
	assert.Contains(t, body, "worktime_overlap_pairs_total 4")
}

func TestMetrics_Timers(t *testing.T) {
	m := New()
	m.TimersStarted.Inc()
	m.TimerConflicts.Inc()
	m.RecordError("storage", "conflict")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "worktime_timers_started_total 1")
	assert.Contains(t, body, "worktime_timer_conflicts_total 1")
	assert.Contains(t, body, `worktime_errors_total{module="storage",type="conflict"} 1`)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	handler := m.Handler()
	assert.NotNil(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	return strings.TrimSpace(string(body))
}
