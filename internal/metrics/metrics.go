package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dupescan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dupescan_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dupescan_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dupescan_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dupescan_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Scan metrics
var (
	ScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupescan_scans_total",
			Help: "Total number of completed scans",
		},
	)

	ScansRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupescan_scans_rejected_total",
			Help: "Scan requests rejected because a scan was already running",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupescan_scan_errors_total",
			Help: "Total number of scans that failed outright",
		},
	)

	ScanRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_scan_files_total",
			Help: "Files handled by scans, by outcome",
		},
		[]string{"outcome"}, // "added", "updated", "unchanged", "hidden", "error", "removed"
	)

	ScanDirsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupescan_scan_dirs_skipped_total",
			Help: "Directories pruned from scans (hidden or excluded)",
		},
	)

	HashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dupescan_hash_duration_seconds",
			Help:    "Per-file fingerprinting duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_fs_retry_attempts_total",
			Help: "Filesystem operation retry attempts",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_fs_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_fs_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_fs_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dupescan_fs_operation_duration_seconds",
			Help:    "Filesystem operation duration including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Index metrics
var (
	IndexFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_index_files_total",
			Help: "Number of files currently indexed",
		},
	)

	IndexUniqueHashes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_index_unique_hashes",
			Help: "Number of distinct content hashes in the index",
		},
	)

	IndexDuplicateFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_index_duplicate_files",
			Help: "Number of files that belong to a duplicate group",
		},
	)

	IndexIgnoredGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_index_ignored_groups",
			Help: "Number of duplicate groups suppressed by the operator",
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupescan_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupescan_active_sessions",
			Help: "Number of active dashboard sessions",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dupescan_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
