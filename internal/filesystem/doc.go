// Package filesystem wraps the handful of filesystem calls the scanner
// depends on (stat, open) with retry logic for NFS stale file handle
// errors. Scan roots frequently live on network mounts; a transient
// ESTALE during a walk should not make the scanner skip or mis-classify
// a file.
package filesystem
