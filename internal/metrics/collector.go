package metrics

import (
	"os"
	"time"

	"dupescan/internal/logging"
)

// StatsProvider supplies current index statistics for gauge export.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the index statistics exported as gauges.
type Stats struct {
	TotalFiles     int
	UniqueHashes   int
	DuplicateFiles int
	IgnoredGroups  int
}

// Collector periodically refreshes index and database-size gauges.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a collector reading from provider every interval.
// dbPath points at the SQLite main file; its WAL and SHM siblings are
// sized alongside it.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider != nil {
		stats := c.statsProvider.GetStats()
		IndexFilesTotal.Set(float64(stats.TotalFiles))
		IndexUniqueHashes.Set(float64(stats.UniqueHashes))
		IndexDuplicateFiles.Set(float64(stats.DuplicateFiles))
		IndexIgnoredGroups.Set(float64(stats.IgnoredGroups))

		logging.Debug("Metrics collected: files=%d, unique=%d, duplicates=%d, ignored=%d",
			stats.TotalFiles, stats.UniqueHashes, stats.DuplicateFiles, stats.IgnoredGroups)
	}

	if c.dbPath != "" {
		setFileSize("main", c.dbPath)
		setFileSize("wal", c.dbPath+"-wal")
		setFileSize("shm", c.dbPath+"-shm")
	}
}

func setFileSize(label, path string) {
	info, err := os.Stat(path)
	if err != nil {
		DBSizeBytes.WithLabelValues(label).Set(0)
		return
	}
	DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
}
