// Package middleware provides HTTP middleware for the dashboard and
// API: request logging in W3C extended format, Prometheus request
// metrics, and gzip response compression.
package middleware
