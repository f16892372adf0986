package database

import "time"

// FileRecord is one indexed file: its normalized absolute path, the hex
// content hash observed at the last scan that wrote it, the file's
// modification time at that observation, and the time of the write.
// Hash and ModTime always change together; a record is never partially
// updated.
type FileRecord struct {
	ID       int64     `json:"id"`
	Path     string    `json:"path"`
	Hash     string    `json:"hash"`
	ModTime  time.Time `json:"modTime"`
	ScanTime time.Time `json:"scanTime"`
}

// Snapshot is the per-path subset of a FileRecord the walker needs for
// its incremental decision: hash on file, mtime at last observation.
type Snapshot struct {
	Hash    string
	ModTime time.Time
}

// DuplicateGroup is a set of two or more paths sharing a content hash.
// Paths are ordered by ascending modification time, oldest first, so the
// likely original copy leads.
type DuplicateGroup struct {
	Hash  string   `json:"hash"`
	Paths []string `json:"paths"`
}

// IndexStats summarizes the current state of the index.
// StorageEfficiency is the percentage of files with unique content;
// 100 means no duplicates at all.
type IndexStats struct {
	TotalFiles        int       `json:"totalFiles"`
	UniqueHashes      int       `json:"uniqueHashes"`
	DuplicateFiles    int       `json:"duplicateFiles"`
	IgnoredGroups     int       `json:"ignoredGroups"`
	StorageEfficiency float64   `json:"storageEfficiency"`
	LastScan          time.Time `json:"lastScan,omitempty"`
	LastScanLength    string    `json:"lastScanDuration,omitempty"`
}
