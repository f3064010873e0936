package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.EventEmitted("newAnnouncement", "class")
	m.RecordAuthzDenial("role")
	m.RecordTaskTransitions("event_completion", 3)
	m.RecordTaskTransitions("event_completion", 0)
	m.RecordTaskFailure("announcement_archival")
	m.RecordTickSkipped()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/events", http.StatusOK, 20*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "ws_connections_active 1")
	assert.Contains(t, body, `realtime_events_emitted_total{event="newAnnouncement",target="class"} 1`)
	assert.Contains(t, body, `authz_denials_total{reason="role"} 1`)
	assert.Contains(t, body, `scheduled_task_transitions_total{category="event_completion"} 3`)
	assert.Contains(t, body, `scheduled_task_failures_total{category="announcement_archival"} 1`)
	assert.Contains(t, body, "scheduled_task_ticks_skipped_total 1")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/events",status="200"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.EventEmitted("x", "all")
		m.RecordAuthzDenial("role")
		m.RecordTickSkipped()
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
