package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, the realtime
// gateway, authorization and scheduled tasks.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	wsConnections   prometheus.Gauge
	eventsEmitted   *prometheus.CounterVec
	authzDenials    *prometheus.CounterVec
	taskTransitions *prometheus.CounterVec
	taskFailures    *prometheus.CounterVec
	ticksSkipped    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Authenticated websocket connections on this instance",
	})

	eventsEmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_emitted_total",
		Help: "Realtime events emitted by target kind",
	}, []string{"event", "target"})

	authzDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_denials_total",
		Help: "Requests denied by the access guard",
	}, []string{"reason"})

	taskTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduled_task_transitions_total",
		Help: "Rows transitioned by scheduled tasks",
	}, []string{"category"})

	taskFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduled_task_failures_total",
		Help: "Failed scheduled task categories",
	}, []string{"category"})

	ticksSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduled_task_ticks_skipped_total",
		Help: "Ticks skipped because the previous tick was still running",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, wsConnections, eventsEmitted, authzDenials, taskTransitions, taskFailures, ticksSkipped, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		wsConnections:   wsConnections,
		eventsEmitted:   eventsEmitted,
		authzDenials:    authzDenials,
		taskTransitions: taskTransitions,
		taskFailures:    taskFailures,
		ticksSkipped:    ticksSkipped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the private registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ConnectionOpened increments the active websocket gauge.
func (m *MetricsService) ConnectionOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

// ConnectionClosed decrements the active websocket gauge.
func (m *MetricsService) ConnectionClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

// EventEmitted counts one emission.
func (m *MetricsService) EventEmitted(event, target string) {
	if m == nil {
		return
	}
	m.eventsEmitted.WithLabelValues(event, target).Inc()
}

// RecordAuthzDenial counts a guard denial.
func (m *MetricsService) RecordAuthzDenial(reason string) {
	if m == nil {
		return
	}
	m.authzDenials.WithLabelValues(reason).Inc()
}

// RecordTaskTransitions adds transitioned rows for a task category.
func (m *MetricsService) RecordTaskTransitions(category string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.taskTransitions.WithLabelValues(category).Add(float64(count))
}

// RecordTaskFailure counts a failed task category.
func (m *MetricsService) RecordTaskFailure(category string) {
	if m == nil {
		return
	}
	m.taskFailures.WithLabelValues(category).Inc()
}

// RecordTickSkipped counts a skipped tick.
func (m *MetricsService) RecordTickSkipped() {
	if m == nil {
		return
	}
	m.ticksSkipped.Inc()
}
