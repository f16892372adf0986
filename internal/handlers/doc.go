// Package handlers implements the HTTP API and dashboard endpoints:
// scan control, duplicate queries, ignore-list management, file
// cleanup actions, stats, health probes, and session authentication.
package handlers
