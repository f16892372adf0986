// Package metrics defines the Prometheus metrics exported by the
// duplicate scanner service: HTTP request metrics, database query and
// transaction metrics, scan progress and outcome metrics, and
// filesystem retry metrics.
package metrics
