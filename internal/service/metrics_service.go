package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the scheduler core.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	generationRuns  *prometheus.CounterVec
	slotsScheduled  prometheus.Gauge
	slotsPending    prometheus.Gauge
	lockChanges     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generation_runs_total",
		Help: "Schedule generation runs by scope and outcome",
	}, []string{"scope", "outcome"})

	slotsScheduled := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exam_slots_scheduled",
		Help: "Scheduled slots after the most recent generation run",
	})

	slotsPending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exam_slots_unscheduled",
		Help: "Unscheduled slots after the most recent generation run",
	})

	lockChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_slot_lock_changes_total",
		Help: "Slot lock and unlock operations",
	}, []string{"action"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, slotsScheduled, slotsPending, lockChanges, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		generationRuns:  generationRuns,
		slotsScheduled:  slotsScheduled,
		slotsPending:    slotsPending,
		lockChanges:     lockChanges,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGenerationRun records the outcome of a schedule generation run.
func (m *MetricsService) ObserveGenerationRun(scope string, scheduled, unscheduled int, failed bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	m.generationRuns.WithLabelValues(scope, outcome).Inc()
	if !failed {
		m.slotsScheduled.Set(float64(scheduled))
		m.slotsPending.Set(float64(unscheduled))
	}
}

// ObserveLockChange counts lock and unlock operations.
func (m *MetricsService) ObserveLockChange(action string) {
	if m == nil {
		return
	}
	m.lockChanges.WithLabelValues(action).Inc()
}

// RecordCacheOperation records overview cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
