// Package metrics provides Prometheus metrics for the vigil risk service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the vigil service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Business Metrics - evaluation pipeline
	evaluationsTotal     *prometheus.CounterVec
	evaluationsDuplicate prometheus.Counter
	evaluationsSkipped   prometheus.Counter
	scoringLatency       prometheus.Histogram
	escalationsDecided   *prometheus.CounterVec
	warningsDrafted      *prometheus.CounterVec
	warningsIssued       *prometheus.CounterVec
	warningsAcknowledged prometheus.Counter
	transitionViolations prometheus.Counter

	// LLM collaborator metrics
	llmCalls        *prometheus.CounterVec
	llmLatency      prometheus.Histogram
	llmRetries      prometheus.Counter
	draftParseRetry prometheus.Counter
	draftFailures   *prometheus.CounterVec

	// Operational Health Metrics
	queueSize      prometheus.Gauge
	workerCount    prometheus.Gauge
	fellowsTracked prometheus.Gauge
	activeWarnings *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vigil",
		subsystem:        "risk",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Core Business Metrics - the evaluation pipeline
	m.evaluationsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "evaluations_total",
			Help:      "Total number of fellow risk evaluations by resulting tier",
		},
		[]string{"tier"},
	)

	m.evaluationsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_duplicate_total",
		Help:      "Total number of duplicate evaluation submissions detected",
	})

	m.evaluationsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_skipped_total",
		Help:      "Total number of evaluations skipped for lack of check-in data",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of signal collection plus scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.escalationsDecided = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "escalations_decided_total",
			Help:      "Total number of escalation decisions by warning level",
		},
		[]string{"level"},
	)

	m.warningsDrafted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "warnings_drafted_total",
			Help:      "Total number of warning drafts recorded by level",
		},
		[]string{"level"},
	)

	m.warningsIssued = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "warnings_issued_total",
			Help:      "Total number of warnings issued by level",
		},
		[]string{"level"},
	)

	m.warningsAcknowledged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warnings_acknowledged_total",
		Help:      "Total number of warnings acknowledged by fellows",
	})

	m.transitionViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warning_transition_violations_total",
		Help:      "Total number of rejected warning lifecycle transitions",
	})

	// LLM collaborator metrics
	m.llmCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "llm_calls_total",
			Help:      "Total number of LLM completion calls by outcome",
		},
		[]string{"outcome"},
	)

	m.llmLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_latency_milliseconds",
		Help:      "LLM completion call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.llmRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_retries_total",
		Help:      "Total number of LLM call retries after rate limiting",
	})

	m.draftParseRetry = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "draft_parse_retries_total",
		Help:      "Total number of draft re-requests caused by malformed replies",
	})

	m.draftFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "draft_failures_total",
			Help:      "Total number of abandoned draft attempts by failure kind",
		},
		[]string{"kind"},
	)

	// Operational Health Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the draft-job queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of draft workers",
	})

	m.fellowsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fellows_tracked",
		Help:      "Total number of fellows with at least one risk assessment",
	})

	m.activeWarnings = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "active_warnings",
			Help:      "Current number of non-acknowledged warnings by level",
		},
		[]string{"level"},
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Queue Metrics
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum draft-job queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of draft jobs enqueued",
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of draft jobs dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts (backpressure, closed)",
	})

	// Worker Metrics
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Draft worker end-to-end job latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of draft worker job failures",
	})

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by HTTP endpoint and method",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Business metric helpers.

// RecordEvaluation records a completed risk evaluation by tier name.
func RecordEvaluation(tier string) {
	globalManager.evaluationsTotal.WithLabelValues(tier).Inc()
}

// RecordEvaluationDuplicate records a duplicate evaluation submission.
func RecordEvaluationDuplicate() {
	globalManager.evaluationsDuplicate.Inc()
}

// RecordEvaluationSkipped records an evaluation skipped for missing data.
func RecordEvaluationSkipped() {
	globalManager.evaluationsSkipped.Inc()
}

// RecordScoringLatency records collection+scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordEscalationDecided records an escalation decision by warning level.
func RecordEscalationDecided(level string) {
	globalManager.escalationsDecided.WithLabelValues(level).Inc()
}

// RecordWarningDrafted records a persisted warning draft by level.
func RecordWarningDrafted(level string) {
	globalManager.warningsDrafted.WithLabelValues(level).Inc()
}

// RecordWarningIssued records an issued warning by level.
func RecordWarningIssued(level string) {
	globalManager.warningsIssued.WithLabelValues(level).Inc()
}

// RecordWarningAcknowledged records an acknowledged warning.
func RecordWarningAcknowledged() {
	globalManager.warningsAcknowledged.Inc()
}

// RecordTransitionViolation records a rejected lifecycle transition.
func RecordTransitionViolation() {
	globalManager.transitionViolations.Inc()
}

// LLM metric helpers.

// RecordLLMCall records an LLM call by outcome (ok, rate_limited, timeout, error).
func RecordLLMCall(outcome string) {
	globalManager.llmCalls.WithLabelValues(outcome).Inc()
}

// RecordLLMLatency records an LLM call latency in milliseconds.
func RecordLLMLatency(latencyMs float64) {
	globalManager.llmLatency.Observe(latencyMs)
}

// RecordLLMRetry records a retry after rate limiting.
func RecordLLMRetry() {
	globalManager.llmRetries.Inc()
}

// RecordDraftParseRetry records a re-request caused by a malformed reply.
func RecordDraftParseRetry() {
	globalManager.draftParseRetry.Inc()
}

// RecordDraftFailure records an abandoned draft attempt by failure kind.
func RecordDraftFailure(kind string) {
	globalManager.draftFailures.WithLabelValues(kind).Inc()
}

// Operational helpers.

// UpdateQueueSize updates the current queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount updates the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateFellowsTracked updates the tracked fellows gauge.
func UpdateFellowsTracked(count int) {
	globalManager.fellowsTracked.Set(float64(count))
}

// UpdateActiveWarnings updates the active warnings gauge for a level.
func UpdateActiveWarnings(level string, count int) {
	globalManager.activeWarnings.WithLabelValues(level).Set(float64(count))
}

// HTTP helpers.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue helpers.

// UpdateQueueCapacity updates the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization updates the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue records a successful enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue records a successful dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError records a failed enqueue attempt.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker helpers.

// RecordWorkerProcessingLatency records end-to-end job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError records a worker job failure.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error helpers.

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error by endpoint and method.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System helpers.

// UpdateSystemMemoryUsage updates the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
