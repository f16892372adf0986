// Package scanner walks a directory tree and keeps the content index
// current. A scan validates its root, prunes hidden and excluded
// directories before descent, fingerprints only files that are new or
// whose modification time moved by more than a second, commits all
// writes, and then reconciles records for files that disappeared from
// disk.
//
// Scans are single-flight per Scanner: starting a second scan while one
// runs returns ErrScanInProgress. A running scan is observable through
// its Session handle and always terminates in a Summary or an error;
// there is no mid-walk cancellation.
//
// The scanner performs no log or console I/O of its own. Callers that
// want per-file visibility subscribe through Events.
package scanner
