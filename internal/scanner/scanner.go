package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dupescan/internal/database"
	"dupescan/internal/filesystem"
	"dupescan/internal/fingerprint"
	"dupescan/internal/metrics"
	"dupescan/internal/pathfilter"
	"dupescan/internal/workers"
)

const (
	// batchSize bounds the number of upserts per transaction so readers
	// are never starved during a large scan.
	batchSize = 500
	// batchDelay yields between batches to let queued readers through.
	batchDelay = 10 * time.Millisecond
)

// Config describes one scan request.
type Config struct {
	// Root is the directory to scan. It is normalized before use.
	Root string
	// IncludeHidden includes dot-files and dot-directories.
	IncludeHidden bool
	// ExcludedDirs lists directory names or paths to prune.
	ExcludedDirs []string
}

// Scanner runs incremental scans against a database. Scans are
// single-flight: at most one runs at a time per Scanner.
type Scanner struct {
	db          *database.Database
	events      Events
	hashWorkers int
	retry       filesystem.RetryConfig

	mu     sync.Mutex
	active *Session
}

// New creates a Scanner backed by db.
func New(db *database.Database) *Scanner {
	return &Scanner{
		db:          db,
		hashWorkers: workers.ForIO(16),
		retry:       filesystem.DefaultRetryConfig(),
	}
}

// SetEvents installs progress callbacks. Must be called before Start.
func (s *Scanner) SetEvents(events Events) {
	s.events = events
}

// SetHashWorkers overrides the fingerprinting worker count. Values
// below 1 are ignored.
func (s *Scanner) SetHashWorkers(n int) {
	if n >= 1 {
		s.hashWorkers = n
	}
}

// Active returns the currently running session, or nil.
func (s *Scanner) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Running() {
		return s.active
	}
	return nil
}

// Last returns the most recent session, running or finished, or nil if
// no scan has been started.
func (s *Scanner) Last() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start validates the root and launches a scan in the background,
// returning its Session. A second Start while a scan runs returns
// ErrScanInProgress. An invalid root returns InvalidRootError and
// leaves the index untouched.
func (s *Scanner) Start(ctx context.Context, cfg Config) (*Session, error) {
	s.mu.Lock()
	if s.active != nil && s.active.Running() {
		s.mu.Unlock()
		metrics.ScansRejectedTotal.Inc()
		return nil, ErrScanInProgress
	}

	root, err := s.validateRoot(cfg.Root)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	session := newSession(root)
	s.active = session
	s.mu.Unlock()

	go s.run(ctx, cfg, root, session)
	return session, nil
}

// Scan runs a scan to completion and returns its summary. It is
// Start followed by Wait.
func (s *Scanner) Scan(ctx context.Context, cfg Config) (*Summary, error) {
	session, err := s.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return session.Wait()
}

func (s *Scanner) validateRoot(root string) (string, error) {
	if root == "" {
		return "", &InvalidRootError{Root: root, Reason: "empty path"}
	}
	normalized, err := pathfilter.Normalize(root)
	if err != nil {
		return "", &InvalidRootError{Root: root, Reason: "cannot normalize", Err: err}
	}
	info, err := filesystem.StatWithRetry(normalized, s.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &InvalidRootError{Root: normalized, Reason: "does not exist", Err: err}
		}
		return "", &InvalidRootError{Root: normalized, Reason: "cannot stat", Err: err}
	}
	if !info.IsDir() {
		return "", &InvalidRootError{Root: normalized, Reason: "not a directory"}
	}
	return normalized, nil
}

// pendingFile is a file judged new or changed during the walk, awaiting
// fingerprinting.
type pendingFile struct {
	path  string
	mtime time.Time
	isNew bool
}

// hashedFile is a fingerprinted pendingFile ready to be committed.
type hashedFile struct {
	path  string
	hash  string
	mtime time.Time
	isNew bool
}

func (s *Scanner) run(ctx context.Context, cfg Config, root string, session *Session) {
	metrics.ScansTotal.Inc()
	metrics.ScanRunning.Set(1)
	defer metrics.ScanRunning.Set(0)

	summary, err := s.execute(ctx, cfg, root, session)
	if err != nil {
		metrics.ScanErrors.Inc()
		session.finish(nil, err, s.events)
		return
	}

	metrics.ScanLastRunTimestamp.SetToCurrentTime()
	metrics.ScanLastRunDuration.Set(summary.Duration.Seconds())

	if stats, statsErr := s.db.CalculateStats(ctx); statsErr == nil {
		stats.LastScan = summary.StartedAt
		stats.LastScanLength = summary.DurationText
		s.db.UpdateStats(stats)
	}

	session.finish(summary, nil, s.events)
}

func (s *Scanner) execute(ctx context.Context, cfg Config, root string, session *Session) (*Summary, error) {
	summary := &Summary{
		Root:      root,
		StartedAt: session.StartedAt(),
	}

	snapshot, err := s.db.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	excluded := pathfilter.NewExcludedSet(cfg.ExcludedDirs)

	session.setState(StateWalking, s.events)
	observed := make(map[string]struct{}, len(snapshot))
	var pending []pendingFile

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			summary.FileErrors++
			metrics.ScanFilesTotal.WithLabelValues("error").Inc()
			s.events.fileError(path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if pathfilter.ShouldSkipDirectory(path, cfg.IncludeHidden, excluded) {
				summary.DirsSkipped++
				metrics.ScanDirsSkippedTotal.Inc()
				s.events.directorySkipped(path, pathfilter.IsHidden(path))
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if pathfilter.ShouldSkipFile(path, cfg.IncludeHidden) {
			summary.HiddenSkipped++
			metrics.ScanFilesTotal.WithLabelValues("hidden").Inc()
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			summary.FileErrors++
			metrics.ScanFilesTotal.WithLabelValues("error").Inc()
			s.events.fileError(path, infoErr)
			return nil
		}

		observed[path] = struct{}{}
		session.observed.Add(1)
		s.events.fileObserved(path)

		prev, known := snapshot[path]
		if known && !modTimeChanged(prev.ModTime, info.ModTime()) {
			summary.Unchanged++
			metrics.ScanFilesTotal.WithLabelValues("unchanged").Inc()
			return nil
		}

		pending = append(pending, pendingFile{
			path:  path,
			mtime: info.ModTime(),
			isNew: !known,
		})
		s.events.fileChanged(path, !known)
		return nil
	})
	if walkErr != nil {
		return nil, &InvalidRootError{Root: root, Reason: "walk failed", Err: walkErr}
	}

	hashed := s.fingerprintAll(session, summary, pending)

	session.setState(StateCommitting, s.events)
	if err := s.commit(summary, hashed); err != nil {
		return nil, err
	}

	// A walk that observed nothing is treated as suspect: it must not
	// erase the index. Reconciliation only runs when something on disk
	// was actually seen.
	if len(observed) > 0 {
		session.setState(StateReconciling, s.events)
		removed, err := s.db.DeleteMissing(ctx, observed, s.confirmedGone)
		if err != nil {
			return nil, err
		}
		summary.Removed = removed
		metrics.ScanFilesTotal.WithLabelValues("removed").Add(float64(removed))
	}

	summary.Duration = time.Since(summary.StartedAt)
	summary.DurationText = summary.Duration.Round(time.Millisecond).String()
	return summary, nil
}

// fingerprintAll hashes every pending file with a bounded worker pool.
// Files that fail to hash are counted and skipped; the scan continues.
func (s *Scanner) fingerprintAll(session *Session, summary *Summary, pending []pendingFile) []hashedFile {
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan pendingFile)
	results := make(chan hashedFile, len(pending))
	failures := make(chan string, len(pending))

	workerCount := s.hashWorkers
	if workerCount > len(pending) {
		workerCount = len(pending)
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				start := time.Now()
				hash, err := fingerprint.File(job.path)
				metrics.HashDuration.Observe(time.Since(start).Seconds())
				session.hashed.Add(1)
				if err != nil {
					s.events.fileError(job.path, err)
					failures <- job.path
					continue
				}
				results <- hashedFile{path: job.path, hash: hash, mtime: job.mtime, isNew: job.isNew}
			}
		}()
	}

	for _, job := range pending {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(failures)

	for range failures {
		summary.FileErrors++
		metrics.ScanFilesTotal.WithLabelValues("error").Inc()
	}

	hashed := make([]hashedFile, 0, len(results))
	for h := range results {
		hashed = append(hashed, h)
	}
	return hashed
}

// commit writes fingerprints in bounded transactions. Any store error
// aborts the scan; partial batches already committed stay committed.
func (s *Scanner) commit(summary *Summary, hashed []hashedFile) error {
	for start := 0; start < len(hashed); start += batchSize {
		end := start + batchSize
		if end > len(hashed) {
			end = len(hashed)
		}

		tx, err := s.db.BeginBatch()
		if err != nil {
			return err
		}
		for _, h := range hashed[start:end] {
			if err := s.db.UpsertFile(tx, h.path, h.hash, h.mtime); err != nil {
				if endErr := s.db.EndBatch(tx, err); endErr != nil {
					return endErr
				}
				return err
			}
		}
		if err := s.db.EndBatch(tx, nil); err != nil {
			return err
		}

		for _, h := range hashed[start:end] {
			if h.isNew {
				summary.Added++
				metrics.ScanFilesTotal.WithLabelValues("added").Inc()
			} else {
				summary.Updated++
				metrics.ScanFilesTotal.WithLabelValues("updated").Inc()
			}
		}

		if end < len(hashed) {
			time.Sleep(batchDelay)
		}
	}
	return nil
}

// confirmedGone reports whether a path is verifiably absent from disk.
// Anything short of a definite ENOENT (permission error, stale mount)
// counts as present, so the record survives.
func (s *Scanner) confirmedGone(path string) bool {
	_, err := filesystem.StatWithRetry(path, s.retry)
	return os.IsNotExist(err)
}

// modTimeChanged compares modification times at one-second granularity
// with one second of tolerance, absorbing filesystems that truncate or
// round sub-second timestamps.
func modTimeChanged(stored, current time.Time) bool {
	delta := current.Unix() - stored.Unix()
	if delta < 0 {
		delta = -delta
	}
	return delta > 1
}
