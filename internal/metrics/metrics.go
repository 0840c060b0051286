package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Preview pipeline metrics
var (
	PreviewRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_preview_requests_total",
			Help: "Total number of preview pipeline runs by outcome and failure cause",
		},
		[]string{"outcome", "cause"},
	)

	PreviewDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_preview_duration_seconds",
			Help:    "Total time of a preview pipeline run in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	PreviewStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_preview_stage_duration_seconds",
			Help:    "Time spent reaching each pipeline state in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"state"},
	)

	PreviewTempFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_temp_files_removed_total",
			Help: "Total number of temporary files removed after preview requests",
		},
	)

	PreviewsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_previews_in_progress",
			Help: "Number of preview pipelines currently running",
		},
	)

	PreviewQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_preview_queue_wait_seconds",
			Help:    "Time a preview request waited for a free worker in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	NormalizePhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_normalize_phase_duration_seconds",
			Help:    "Duration of each normalization phase in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"format", "backend", "phase"},
	)
)

// External tool metrics
var (
	ExiftoolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_exiftool_invocations_total",
			Help: "Total number of exiftool invocations by operation and status",
		},
		[]string{"operation", "status"},
	)

	ExiftoolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_exiftool_duration_seconds",
			Help:    "Duration of exiftool invocations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	CapabilityAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_capability_available",
			Help: "Whether an optional capability is available (1) or not (0)",
		},
		[]string{"capability"}, // "exiftool", "vips", "tiff_decode"
	)
)

// Preview cache metrics
var (
	PreviewCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
	)

	PreviewCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
	)

	PreviewCacheStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_cache_stale_total",
			Help: "Total number of cached previews discarded because the source changed",
		},
	)

	PreviewCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_cache_size_bytes",
			Help: "Total size of cached previews in bytes",
		},
	)

	PreviewCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_cache_previews",
			Help: "Number of cached previews",
		},
	)

	PreviewCacheFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_cache_source_files",
			Help: "Number of source files with at least one cached preview",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after NFS stale handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_memory_paused",
			Help: "Whether new previews are held because memory is critical (1 = held)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_memory_gc_pauses_total",
			Help: "Total number of times preview admission was paused for memory",
		},
	)
)

// Warm-up metrics
var (
	WarmupFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_warmup_files_total",
			Help: "Total number of files visited by the preview warm-up by result",
		},
		[]string{"result"},
	)

	WarmupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_raw_previews_warmup_runs_total",
			Help: "Total number of preview warm-up runs by status",
		},
		[]string{"status"},
	)

	WarmupRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "camera_raw_previews_warmup_run_duration_seconds",
			Help:    "Duration of a complete preview warm-up run in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
	)

	WarmupWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_warmup_workers",
			Help: "Number of parallel warm-up workers",
		},
	)

	WarmupRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_warmup_running",
			Help: "Whether a preview warm-up run is in progress (1 = running)",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camera_raw_previews_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
