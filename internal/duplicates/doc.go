// Package duplicates reports groups of files sharing a content hash and
// manages the per-group ignore list. It is a thin facade over the
// database layer that validates hashes and normalizes directory filters
// before they reach SQL.
package duplicates
