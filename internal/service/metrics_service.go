package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache and domain events.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	quizAttempts    prometheus.Counter
	quizScores      prometheus.Histogram
	lessonsDone     prometheus.Counter
	webhookResults  *prometheus.CounterVec
	reportsTotal    *prometheus.CounterVec
	assistantCalls  *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	quizAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lms_quiz_attempts_total",
		Help: "Total graded quiz submissions",
	})

	quizScores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lms_quiz_score_percent",
		Help:    "Distribution of quiz scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	lessonsDone := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lms_lessons_completed_total",
		Help: "Total lessons marked complete",
	})

	webhookResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_webhook_deliveries_total",
		Help: "Outbound webhook deliveries by result",
	}, []string{"result"})

	reportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_reports_generated_total",
		Help: "Generated report artifacts by kind and format",
	}, []string{"kind", "format"})

	assistantCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_assistant_requests_total",
		Help: "Assistant requests by provider and result",
	}, []string{"provider", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		quizAttempts, quizScores, lessonsDone, webhookResults, reportsTotal, assistantCalls, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		quizAttempts:    quizAttempts,
		quizScores:      quizScores,
		lessonsDone:     lessonsDone,
		webhookResults:  webhookResults,
		reportsTotal:    reportsTotal,
		assistantCalls:  assistantCalls,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveQuizAttempt counts a graded submission and its score.
func (m *MetricsService) ObserveQuizAttempt(score float64) {
	if m == nil {
		return
	}
	m.quizAttempts.Inc()
	m.quizScores.Observe(score)
}

// IncLessonCompleted counts a lesson completion.
func (m *MetricsService) IncLessonCompleted() {
	if m == nil {
		return
	}
	m.lessonsDone.Inc()
}

// RecordWebhookDelivery counts an outbound webhook by result (delivered, failed, skipped).
func (m *MetricsService) RecordWebhookDelivery(result string) {
	if m == nil {
		return
	}
	m.webhookResults.WithLabelValues(result).Inc()
}

// RecordReport counts a generated report artifact.
func (m *MetricsService) RecordReport(kind, format string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(kind, format).Inc()
}

// RecordAssistantRequest counts an assistant call by provider and result.
func (m *MetricsService) RecordAssistantRequest(provider, result string) {
	if m == nil {
		return
	}
	m.assistantCalls.WithLabelValues(provider, result).Inc()
}
