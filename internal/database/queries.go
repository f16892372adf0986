package database

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadAll returns the committed snapshot of every file record, keyed by
// normalized path. The walker uses it to decide which files need
// re-hashing without a per-file query.
func (d *Database) LoadAll(ctx context.Context) (map[string]Snapshot, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_all", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, "SELECT path, hash, mtime FROM files")
	if err != nil {
		return nil, storeErr("load_all", err)
	}
	defer rows.Close()

	snapshot := make(map[string]Snapshot)
	for rows.Next() {
		var path, hash string
		var mtime int64
		if err = rows.Scan(&path, &hash, &mtime); err != nil {
			return nil, storeErr("load_all", err)
		}
		snapshot[path] = Snapshot{Hash: hash, ModTime: time.Unix(mtime, 0)}
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("load_all", err)
	}
	return snapshot, nil
}

// UpsertFile inserts or replaces the record for a path within a batch
// transaction. Hash and mtime are written together; scan_time is
// refreshed on every write. Modification times are stored at one-second
// granularity (unix seconds), which is also the comparison granularity
// of the walker.
func (d *Database) UpsertFile(tx *sql.Tx, path, hash string, mtime time.Time) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_file", start, err) }()

	query := `
	INSERT INTO files (path, hash, mtime, scan_time)
	VALUES (?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		hash = excluded.hash,
		mtime = excluded.mtime,
		scan_time = strftime('%s', 'now')
	`

	_, err = tx.ExecContext(context.Background(), query, path, hash, mtime.Unix())
	return storeErr("upsert_file", err)
}

// DeleteMissing removes every record whose path is absent from observed
// AND whose absence from disk is confirmed by the probe at deletion
// time. A record is never deleted just because one scan didn't reach it:
// a partial or wrongly-scoped walk leaves records for still-existing
// files alone. Returns the number of records removed.
//
// confirmedGone must return true only for paths verified missing; on
// doubt (permission error, stale mount) it must return false.
func (d *Database) DeleteMissing(ctx context.Context, observed map[string]struct{}, confirmedGone func(path string) bool) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_missing", start, err) }()

	if confirmedGone == nil {
		confirmedGone = func(path string) bool {
			_, statErr := os.Stat(path)
			return os.IsNotExist(statErr)
		}
	}

	d.mu.RLock()
	rows, err := d.db.QueryContext(ctx, "SELECT path FROM files")
	if err != nil {
		d.mu.RUnlock()
		return 0, storeErr("delete_missing", err)
	}

	var candidates []string
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			rows.Close()
			d.mu.RUnlock()
			return 0, storeErr("delete_missing", err)
		}
		if _, ok := observed[path]; !ok {
			candidates = append(candidates, path)
		}
	}
	err = rows.Err()
	rows.Close()
	d.mu.RUnlock()
	if err != nil {
		return 0, storeErr("delete_missing", err)
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, path := range candidates {
		if !confirmedGone(path) {
			continue
		}
		if _, err = tx.ExecContext(context.Background(),
			"DELETE FROM files WHERE path = ?", path); err != nil {
			err = storeErr("delete_missing", err)
			if endErr := d.EndBatch(tx, err); endErr != nil {
				return 0, endErr
			}
			return 0, err
		}
		removed++
	}

	if err = d.EndBatch(tx, nil); err != nil {
		return 0, err
	}
	return removed, nil
}

// DuplicateGroups returns every content hash with two or more member
// paths, most populous group first, members ordered oldest first.
//
// With a directoryPrefix, both the qualification count and the member
// list are restricted to paths under that prefix: a hash with three
// members of which only one is under the prefix does not qualify. The
// prefix must already be normalized (see duplicates.Index).
//
// Unless includeIgnored is set, hashes present in ignored_groups are
// left out.
func (d *Database) DuplicateGroups(ctx context.Context, directoryPrefix string, includeIgnored bool) ([]DuplicateGroup, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("duplicate_groups", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var conds []string
	var params []interface{}

	if directoryPrefix != "" {
		conds = append(conds, `path LIKE ? ESCAPE '\'`)
		params = append(params, likePrefixPattern(directoryPrefix))
	}
	if !includeIgnored {
		conds = append(conds, "hash NOT IN (SELECT hash FROM ignored_groups)")
	}

	query := "SELECT hash, COUNT(*) AS members FROM files"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY hash HAVING members > 1 ORDER BY members DESC, hash"

	rows, err := d.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, storeErr("duplicate_groups", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		var count int
		if err = rows.Scan(&hash, &count); err != nil {
			return nil, storeErr("duplicate_groups", err)
		}
		hashes = append(hashes, hash)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("duplicate_groups", err)
	}

	groups := make([]DuplicateGroup, 0, len(hashes))
	for _, hash := range hashes {
		memberQuery := "SELECT path FROM files WHERE hash = ?"
		memberParams := []interface{}{hash}
		if directoryPrefix != "" {
			memberQuery += ` AND path LIKE ? ESCAPE '\'`
			memberParams = append(memberParams, likePrefixPattern(directoryPrefix))
		}
		memberQuery += " ORDER BY mtime, path"

		memberRows, memberErr := d.db.QueryContext(ctx, memberQuery, memberParams...)
		if memberErr != nil {
			err = memberErr
			return nil, storeErr("duplicate_groups", err)
		}

		var paths []string
		for memberRows.Next() {
			var path string
			if err = memberRows.Scan(&path); err != nil {
				memberRows.Close()
				return nil, storeErr("duplicate_groups", err)
			}
			paths = append(paths, path)
		}
		err = memberRows.Err()
		memberRows.Close()
		if err != nil {
			return nil, storeErr("duplicate_groups", err)
		}

		if len(paths) > 1 {
			groups = append(groups, DuplicateGroup{Hash: hash, Paths: paths})
		}
	}
	return groups, nil
}

// IgnoreGroup suppresses a duplicate group from default reporting.
// Idempotent: re-ignoring the same hash replaces the row. Valid for a
// hash with no current members.
func (d *Database) IgnoreGroup(ctx context.Context, hash string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("ignore_group", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO ignored_groups (hash, ignored_at) VALUES (?, strftime('%s', 'now'))",
		hash,
	)
	return storeErr("ignore_group", err)
}

// UnignoreGroup restores a duplicate group to default reporting.
// Idempotent: unignoring a hash that was never ignored is a no-op.
func (d *Database) UnignoreGroup(ctx context.Context, hash string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("unignore_group", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.ExecContext(ctx, "DELETE FROM ignored_groups WHERE hash = ?", hash)
	return storeErr("unignore_group", err)
}

// FilesByHash returns every record sharing a content hash, oldest
// modification time first.
func (d *Database) FilesByHash(ctx context.Context, hash string) ([]FileRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("files_by_hash", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, path, hash, mtime, scan_time FROM files WHERE hash = ? ORDER BY mtime, path", hash)
	if err != nil {
		return nil, storeErr("files_by_hash", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var r FileRecord
		var mtime, scanTime int64
		if err = rows.Scan(&r.ID, &r.Path, &r.Hash, &mtime, &scanTime); err != nil {
			return nil, storeErr("files_by_hash", err)
		}
		r.ModTime = time.Unix(mtime, 0)
		r.ScanTime = time.Unix(scanTime, 0)
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("files_by_hash", err)
	}
	return records, nil
}

// DeleteFileRecord removes a single record by path, typically after the
// operator deleted the file through the dashboard. Returns true when a
// record was removed.
func (d *Database) DeleteFileRecord(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_file", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return false, storeErr("delete_file", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeErr("delete_file", err)
	}
	return rows > 0, nil
}

// CalculateStats computes current index statistics.
func (d *Database) CalculateStats(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var stats IndexStats

	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.TotalFiles); err != nil {
		return stats, storeErr("stats", err)
	}
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT hash) FROM files").Scan(&stats.UniqueHashes); err != nil {
		return stats, storeErr("stats", err)
	}
	if err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM files
		WHERE hash IN (SELECT hash FROM files GROUP BY hash HAVING COUNT(*) > 1)
	`).Scan(&stats.DuplicateFiles); err != nil {
		return stats, storeErr("stats", err)
	}
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ignored_groups").Scan(&stats.IgnoredGroups); err != nil {
		return stats, storeErr("stats", err)
	}

	if stats.TotalFiles > 0 {
		efficiency := float64(stats.UniqueHashes) / float64(stats.TotalFiles) * 100
		stats.StorageEfficiency = math.Round(efficiency*10) / 10
	}

	return stats, nil
}

// likePrefixPattern turns a normalized directory path into a LIKE
// pattern matching only paths strictly beneath it. LIKE wildcards in the
// directory name itself are escaped, and a trailing separator is forced
// so "/a" never matches "/ab/...".
func likePrefixPattern(dir string) string {
	sep := string(filepath.Separator)
	trimmed := strings.TrimRight(dir, sep)

	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return escaper.Replace(trimmed) + sep + "%"
}
