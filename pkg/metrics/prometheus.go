// Package metrics provides Prometheus metrics for the quotedesk decision engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Core Business Metrics
	proposalsNormalized   *prometheus.CounterVec
	analysisRuns          *prometheus.CounterVec
	analysisLatency       prometheus.Histogram
	rankingLatency        prometheus.Histogram
	combinationsBuilt     *prometheus.CounterVec
	combinationSavings    prometheus.Histogram
	visibilityDecisions   *prometheus.CounterVec
	weightRedistributions *prometheus.CounterVec

	// Repository Metrics
	quotesTotal            prometheus.Gauge
	proposalsTotal         prometheus.Gauge
	repositoryQueryLatency *prometheus.HistogramVec

	// Resync Queue Metrics
	resyncDuplicate  prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueRejected    prometheus.Counter
	queueWaitLatency prometheus.Histogram

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "quotedesk",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.proposalsNormalized = auto.NewCounterVec(
		m.counterOpts("proposals_normalized_total", "Proposals normalized, by where the total came from"),
		[]string{"total_source"},
	)
	m.analysisRuns = auto.NewCounterVec(
		m.counterOpts("analysis_runs_total", "Quote analyses computed, by resulting matrix state"),
		[]string{"state"},
	)
	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_latency_milliseconds", "End-to-end analysis latency in milliseconds", nil),
	)
	m.rankingLatency = auto.NewHistogram(
		m.histogramOpts("ranking_latency_milliseconds", "Decision matrix ranking latency in milliseconds", nil),
	)
	m.combinationsBuilt = auto.NewCounterVec(
		m.counterOpts("combinations_total", "Smart combinations built, by whether more than one supplier won"),
		[]string{"multi_supplier"},
	)
	m.combinationSavings = auto.NewHistogram(
		m.histogramOpts("combination_savings_percentage", "Savings percentage of optimized baskets",
			[]float64{0, 1, 2.5, 5, 10, 15, 20, 30, 50}),
	)
	m.visibilityDecisions = auto.NewCounterVec(
		m.counterOpts("visibility_decisions_total", "Matrix readiness decisions by state and rule"),
		[]string{"state", "reason"},
	)
	m.weightRedistributions = auto.NewCounterVec(
		m.counterOpts("weight_redistributions_total", "Interactive weight edits by metric"),
		[]string{"metric"},
	)

	// Repository Metrics
	m.quotesTotal = auto.NewGauge(m.gaugeOpts("quotes_total", "Quotes held by the store"))
	m.proposalsTotal = auto.NewGauge(m.gaugeOpts("proposals_total", "Proposals held by the store"))
	m.repositoryQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository operation latency in milliseconds", nil),
		[]string{"operation"},
	)

	// Resync Queue Metrics
	m.resyncDuplicate = auto.NewCounter(m.counterOpts("resync_duplicate_total", "Resync requests coalesced into a pending job"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the resync queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum resync queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of resync jobs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of resync jobs dequeued"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Resync jobs rejected because the queue was full or closed"))
	m.queueWaitLatency = auto.NewHistogram(
		m.histogramOpts("queue_wait_latency_milliseconds", "Time a resync job waited in the queue", nil),
	)

	// Worker Metrics
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of analysis workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently processing a job"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", nil),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordProposalNormalized counts a normalized proposal by total source.
func RecordProposalNormalized(totalSource string) {
	globalManager.proposalsNormalized.WithLabelValues(totalSource).Inc()
}

// RecordAnalysis records one analysis run and its latency.
func RecordAnalysis(state string, latencyMs float64) {
	globalManager.analysisRuns.WithLabelValues(state).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordRankingLatency records ranking latency in milliseconds.
func RecordRankingLatency(latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordCombination records a built basket.
func RecordCombination(multiSupplier bool, savingsPercentage float64) {
	globalManager.combinationsBuilt.WithLabelValues(strconv.FormatBool(multiSupplier)).Inc()
	globalManager.combinationSavings.Observe(savingsPercentage)
}

// RecordVisibilityDecision counts a readiness decision.
func RecordVisibilityDecision(state, reason string) {
	globalManager.visibilityDecisions.WithLabelValues(state, reason).Inc()
}

// RecordWeightRedistribution counts an interactive weight edit.
func RecordWeightRedistribution(metric string) {
	globalManager.weightRedistributions.WithLabelValues(metric).Inc()
}

// Repository Metrics Functions.

// UpdateQuotesTotal sets the number of stored quotes.
func UpdateQuotesTotal(count int) {
	globalManager.quotesTotal.Set(float64(count))
}

// UpdateProposalsTotal sets the number of stored proposals.
func UpdateProposalsTotal(count int) {
	globalManager.proposalsTotal.Set(float64(count))
}

// RecordRepositoryQueryLatency records a repository operation latency.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// Queue Metrics Functions.

// RecordResyncDuplicate counts a resync coalesced into a pending job.
func RecordResyncDuplicate() {
	globalManager.resyncDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueRejected increments the rejected-enqueue counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordQueueWaitLatency records how long a job waited before a worker took it.
func RecordQueueWaitLatency(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
