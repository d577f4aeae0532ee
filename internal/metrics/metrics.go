package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation API
	GenerateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotools_generate_requests_total",
			Help: "Total number of remote generation calls",
		},
		[]string{"outcome"},
	)

	GenerateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videotools_generate_duration_seconds",
			Help:    "Remote generation call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
		},
	)

	// Translation
	TranslatedBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videotools_translated_batches_total",
			Help: "Total number of subtitle batches translated",
		},
	)

	TranslationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotools_translation_runs_total",
			Help: "Total number of translation runs by final state",
		},
		[]string{"state"},
	)

	TranslationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videotools_translation_run_duration_seconds",
			Help:    "Translation run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	// Downloads
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotools_downloads_total",
			Help: "Total number of downloads by status",
		},
		[]string{"status"},
	)

	// Jobs
	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotools_jobs_completed_total",
			Help: "Total number of finished jobs",
		},
		[]string{"kind", "status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videotools_jobs_in_progress",
			Help: "Number of jobs currently being processed",
		},
	)

	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videotools_jobs_queue_depth",
			Help: "Number of jobs waiting in queue",
		},
	)

	// HTTP API
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotools_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordGenerate records one remote generation call
func RecordGenerate(outcome string, seconds float64) {
	GenerateRequestsTotal.WithLabelValues(outcome).Inc()
	GenerateDuration.Observe(seconds)
}

// RecordBatch records a translated batch
func RecordBatch() {
	TranslatedBatchesTotal.Inc()
}

// RecordRun records the end of a translation run
func RecordRun(state string, seconds float64) {
	TranslationRunsTotal.WithLabelValues(state).Inc()
	TranslationRunDuration.Observe(seconds)
}

// RecordDownload records a finished download
func RecordDownload(status string) {
	DownloadsTotal.WithLabelValues(status).Inc()
}

// RecordJobCompleted records a job reaching a terminal status
func RecordJobCompleted(kind, status string) {
	JobsCompletedTotal.WithLabelValues(kind, status).Inc()
}

// UpdateJobMetrics updates current job gauges
func UpdateJobMetrics(inProgress, queueDepth int) {
	JobsInProgress.Set(float64(inProgress))
	JobsQueueDepth.Set(float64(queueDepth))
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
