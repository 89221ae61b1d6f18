// Package metrics provides Prometheus metrics for the reelsim recommendation service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core recommendation metrics
	recommendations       prometheus.Counter
	recommendationErrors  *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	candidatesScored      prometheus.Counter
	comparisons           *prometheus.CounterVec
	resultSize            prometheus.Histogram

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter

	// Catalog metrics
	catalogSize    prometheus.Gauge
	datasetRows    *prometheus.CounterVec
	datasetLoadDur prometheus.Histogram

	// Queue metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected *prometheus.CounterVec

	// Worker metrics
	workerCount   prometheus.Gauge
	workerBatches prometheus.Counter
	workerLatency prometheus.Histogram
	inlineBatches prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reelsim",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.recommendations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_total",
		Help:      "Total number of recommendation queries answered",
	})
	m.recommendationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_errors_total",
		Help:      "Recommendation queries that ended in an error outcome, by kind",
	}, []string{"kind"})
	m.recommendationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_latency_milliseconds",
		Help:      "Time to score and rank one recommendation query",
		Buckets:   m.histogramBuckets,
	})
	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Total number of candidate records scored against a reference",
	})
	m.comparisons = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attribute_comparisons_total",
		Help:      "Attribute comparator invocations, by attribute",
	}, []string{"attribute"})
	m.resultSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "result_size",
		Help:      "Number of matches returned per query",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Result cache hits",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Result cache misses",
	})
	m.cacheErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_errors_total",
		Help:      "Result cache backend failures",
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_records",
		Help:      "Number of records in the loaded catalog",
	})
	m.datasetRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows_total",
		Help:      "Dataset rows read, by outcome (loaded, skipped)",
	}, []string{"outcome"})
	m.datasetLoadDur = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_load_milliseconds",
		Help:      "Time to load a dataset source",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Scoring batches waiting in the queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum number of queued scoring batches",
	})
	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueued_total",
		Help:      "Scoring batches accepted by the queue",
	})
	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejected_total",
		Help:      "Scoring batches rejected by the queue, by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of scoring workers",
	})
	m.workerBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_batches_total",
		Help:      "Scoring batches processed by pool workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_batch_latency_milliseconds",
		Help:      "Time for a worker to score one batch",
		Buckets:   m.histogramBuckets,
	})
	m.inlineBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inline_batches_total",
		Help:      "Scoring batches scored by the caller because the queue rejected them",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current memory usage in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_time_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Recommendation metrics.

func RecordRecommendation(latencyMs float64, results int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendations.Inc()
	globalManager.recommendationLatency.Observe(latencyMs)
	globalManager.resultSize.Observe(float64(results))
}

func RecordRecommendationError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendationErrors.WithLabelValues(kind).Inc()
}

func RecordCandidatesScored(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.candidatesScored.Add(float64(n))
}

func RecordComparison(attribute string) {
	if !globalManager.enabled {
		return
	}
	globalManager.comparisons.WithLabelValues(attribute).Inc()
}

// Cache metrics.

func RecordCacheHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.Inc()
}

func RecordCacheMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.Inc()
}

func RecordCacheError() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheErrors.Inc()
}

// Catalog metrics.

func UpdateCatalogSize(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogSize.Set(float64(n))
}

func RecordDatasetRows(loaded, skipped int) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetRows.WithLabelValues("loaded").Add(float64(loaded))
	globalManager.datasetRows.WithLabelValues("skipped").Add(float64(skipped))
}

func RecordDatasetLoadDuration(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetLoadDur.Observe(ms)
}

// Queue metrics.

func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueued.Inc()
}

func RecordQueueReject(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// Worker metrics.

func UpdateWorkerCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

func RecordWorkerBatch(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerBatches.Inc()
	globalManager.workerLatency.Observe(latencyMs)
}

func RecordInlineBatch() {
	if !globalManager.enabled {
		return
	}
	globalManager.inlineBatches.Inc()
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}
