package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func insertFile(t *testing.T, db *Database, path, hash string, mtime time.Time) {
	t.Helper()

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if err := db.UpsertFile(tx, path, hash, mtime); err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}
	if err := db.EndBatch(tx, nil); err != nil {
		t.Fatalf("EndBatch failed: %v", err)
	}
}

func TestUpsertAndLoadAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mtime := time.Unix(1700000000, 0)
	insertFile(t, db, "/data/a.txt", "aaaa", mtime)
	insertFile(t, db, "/data/b.txt", "bbbb", mtime.Add(time.Minute))

	snapshot, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("LoadAll returned %d records, want 2", len(snapshot))
	}

	a, ok := snapshot["/data/a.txt"]
	if !ok {
		t.Fatal("snapshot missing /data/a.txt")
	}
	if a.Hash != "aaaa" {
		t.Errorf("hash = %q, want aaaa", a.Hash)
	}
	if !a.ModTime.Equal(mtime) {
		t.Errorf("mtime = %v, want %v", a.ModTime, mtime)
	}
}

func TestUpsertReplacesOnConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertFile(t, db, "/data/a.txt", "old", time.Unix(1700000000, 0))
	insertFile(t, db, "/data/a.txt", "new", time.Unix(1700009999, 0))

	snapshot, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("expected single record after conflicting upsert, got %d", len(snapshot))
	}
	if snapshot["/data/a.txt"].Hash != "new" {
		t.Errorf("hash = %q, want new", snapshot["/data/a.txt"].Hash)
	}
}

func TestDeleteMissingRemovesConfirmedAbsent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	existing := filepath.Join(dir, "still-here.txt")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	gone := filepath.Join(dir, "gone.txt")

	now := time.Now()
	insertFile(t, db, existing, "aaaa", now)
	insertFile(t, db, gone, "bbbb", now)

	// Neither path was observed; only the one confirmed absent from
	// disk may be removed.
	removed, err := db.DeleteMissing(ctx, map[string]struct{}{}, nil)
	if err != nil {
		t.Fatalf("DeleteMissing failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	snapshot, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if _, ok := snapshot[existing]; !ok {
		t.Error("record for on-disk file was removed")
	}
	if _, ok := snapshot[gone]; ok {
		t.Error("record for deleted file survived")
	}
}

func TestDeleteMissingSparesObserved(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertFile(t, db, "/data/a.txt", "aaaa", time.Now())

	observed := map[string]struct{}{"/data/a.txt": {}}
	removed, err := db.DeleteMissing(ctx, observed, func(string) bool {
		t.Error("probe called for an observed path")
		return true
	})
	if err != nil {
		t.Fatalf("DeleteMissing failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestDeleteMissingProbeDoubt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertFile(t, db, "/data/unreachable.txt", "aaaa", time.Now())

	// Probe cannot confirm absence, so the record must survive.
	removed, err := db.DeleteMissing(ctx, map[string]struct{}{}, func(string) bool {
		return false
	})
	if err != nil {
		t.Fatalf("DeleteMissing failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}

	snapshot, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(snapshot) != 1 {
		t.Error("unconfirmed record was deleted")
	}
}

func TestDuplicateGroupsOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)

	// Three-member group, newest file inserted first.
	insertFile(t, db, "/data/c/copy2.txt", "3333333333333333333333333333333333333333", base.Add(2*time.Hour))
	insertFile(t, db, "/data/a/orig.txt", "3333333333333333333333333333333333333333", base)
	insertFile(t, db, "/data/b/copy1.txt", "3333333333333333333333333333333333333333", base.Add(time.Hour))

	// Two-member group.
	insertFile(t, db, "/data/x.txt", "2222222222222222222222222222222222222222", base)
	insertFile(t, db, "/data/y.txt", "2222222222222222222222222222222222222222", base.Add(time.Minute))

	// Unique file, never reported.
	insertFile(t, db, "/data/solo.txt", "1111111111111111111111111111111111111111", base)

	groups, err := db.DuplicateGroups(ctx, "", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	if groups[0].Hash != "3333333333333333333333333333333333333333" {
		t.Errorf("largest group should come first, got %s", groups[0].Hash)
	}

	wantOrder := []string{"/data/a/orig.txt", "/data/b/copy1.txt", "/data/c/copy2.txt"}
	for i, want := range wantOrder {
		if groups[0].Paths[i] != want {
			t.Errorf("member %d = %s, want %s (oldest first)", i, groups[0].Paths[i], want)
		}
	}
}

func TestDuplicateGroupsDirectoryPrefix(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	hash := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	insertFile(t, db, "/data/photos/a.jpg", hash, base)
	insertFile(t, db, "/data/photos/b.jpg", hash, base.Add(time.Minute))
	insertFile(t, db, "/backup/a.jpg", hash, base.Add(2*time.Minute))

	// Unfiltered, all three members appear.
	groups, err := db.DuplicateGroups(ctx, "", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Paths) != 3 {
		t.Fatalf("unfiltered: got %+v, want one group of 3", groups)
	}

	// Filtered to /data/photos, only the two members beneath it count.
	groups, err = db.DuplicateGroups(ctx, "/data/photos", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Paths) != 2 {
		t.Fatalf("filtered: got %+v, want one group of 2", groups)
	}

	// Filtered to /backup, only one member is under the prefix, so the
	// group no longer qualifies.
	groups, err = db.DuplicateGroups(ctx, "/backup", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("single-member prefix: got %d groups, want 0", len(groups))
	}
}

func TestDuplicateGroupsPrefixIsPathBoundary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	hash := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	insertFile(t, db, "/data/ab/one.txt", hash, base)
	insertFile(t, db, "/data/ab/two.txt", hash, base.Add(time.Minute))

	// "/data/a" must not match "/data/ab/...".
	groups, err := db.DuplicateGroups(ctx, "/data/a", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("prefix /data/a matched /data/ab: %+v", groups)
	}

	groups, err = db.DuplicateGroups(ctx, "/data/ab", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("prefix /data/ab: got %d groups, want 1", len(groups))
	}
}

func TestIgnoreAndUnignoreGroup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	hash := "cccccccccccccccccccccccccccccccccccccccc"
	insertFile(t, db, "/data/a.txt", hash, base)
	insertFile(t, db, "/data/b.txt", hash, base.Add(time.Minute))

	if err := db.IgnoreGroup(ctx, hash); err != nil {
		t.Fatalf("IgnoreGroup failed: %v", err)
	}
	// Re-ignoring is idempotent.
	if err := db.IgnoreGroup(ctx, hash); err != nil {
		t.Fatalf("repeated IgnoreGroup failed: %v", err)
	}

	groups, err := db.DuplicateGroups(ctx, "", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("ignored group still reported: %+v", groups)
	}

	groups, err = db.DuplicateGroups(ctx, "", true)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("includeIgnored should report the group, got %d", len(groups))
	}

	if err := db.UnignoreGroup(ctx, hash); err != nil {
		t.Fatalf("UnignoreGroup failed: %v", err)
	}
	// Unignoring something never ignored is a no-op.
	if err := db.UnignoreGroup(ctx, "dddddddddddddddddddddddddddddddddddddddd"); err != nil {
		t.Fatalf("UnignoreGroup of unknown hash failed: %v", err)
	}

	groups, err = db.DuplicateGroups(ctx, "", false)
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("unignored group missing from default report")
	}
}

func TestIgnoreGroupWithoutMembers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Ignoring a hash with no current members is valid; it takes
	// effect if matching files appear later.
	if err := db.IgnoreGroup(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); err != nil {
		t.Fatalf("IgnoreGroup failed: %v", err)
	}

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("CalculateStats failed: %v", err)
	}
	if stats.IgnoredGroups != 1 {
		t.Errorf("IgnoredGroups = %d, want 1", stats.IgnoredGroups)
	}
}

func TestFilesByHash(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	hash := "ffffffffffffffffffffffffffffffffffffffff"
	insertFile(t, db, "/data/newer.txt", hash, base.Add(time.Hour))
	insertFile(t, db, "/data/older.txt", hash, base)

	records, err := db.FilesByHash(ctx, hash)
	if err != nil {
		t.Fatalf("FilesByHash failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Path != "/data/older.txt" {
		t.Errorf("oldest record should come first, got %s", records[0].Path)
	}
}

func TestDeleteFileRecord(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertFile(t, db, "/data/a.txt", "aaaa", time.Now())

	removed, err := db.DeleteFileRecord(ctx, "/data/a.txt")
	if err != nil {
		t.Fatalf("DeleteFileRecord failed: %v", err)
	}
	if !removed {
		t.Error("expected record to be removed")
	}

	removed, err = db.DeleteFileRecord(ctx, "/data/a.txt")
	if err != nil {
		t.Fatalf("DeleteFileRecord failed: %v", err)
	}
	if removed {
		t.Error("second delete should report nothing removed")
	}
}

func TestCalculateStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	dup := "1111111111111111111111111111111111111111"
	insertFile(t, db, "/data/a.txt", dup, base)
	insertFile(t, db, "/data/b.txt", dup, base)
	insertFile(t, db, "/data/c.txt", "2222222222222222222222222222222222222222", base)

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("CalculateStats failed: %v", err)
	}
	if stats.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", stats.TotalFiles)
	}
	if stats.UniqueHashes != 2 {
		t.Errorf("UniqueHashes = %d, want 2", stats.UniqueHashes)
	}
	if stats.DuplicateFiles != 2 {
		t.Errorf("DuplicateFiles = %d, want 2", stats.DuplicateFiles)
	}
	// 2 unique hashes over 3 files, rounded to one decimal place.
	if stats.StorageEfficiency != 66.7 {
		t.Errorf("StorageEfficiency = %v, want 66.7", stats.StorageEfficiency)
	}
}

func TestCalculateStatsEmptyIndex(t *testing.T) {
	db := setupTestDB(t)

	stats, err := db.CalculateStats(context.Background())
	if err != nil {
		t.Fatalf("CalculateStats failed: %v", err)
	}
	if stats.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", stats.TotalFiles)
	}
	if stats.StorageEfficiency != 0 {
		t.Errorf("StorageEfficiency = %v, want 0 for empty index", stats.StorageEfficiency)
	}
}

func TestStatsCache(t *testing.T) {
	db := setupTestDB(t)

	stats := IndexStats{TotalFiles: 42, LastScanLength: "1.5s"}
	db.UpdateStats(stats)

	got := db.GetStats()
	if got.TotalFiles != 42 || got.LastScanLength != "1.5s" {
		t.Errorf("GetStats = %+v, want %+v", got, stats)
	}
}

func TestLikePrefixPattern(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"plain", "/data/photos", "/data/photos/%"},
		{"trailing separator trimmed", "/data/photos/", "/data/photos/%"},
		{"percent escaped", "/data/100%", `/data/100\%/%`},
		{"underscore escaped", "/data/my_dir", `/data/my\_dir/%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := likePrefixPattern(tt.dir); got != tt.want {
				t.Errorf("likePrefixPattern(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}
