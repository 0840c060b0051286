package metrics

import (
	"os"
	"time"

	"camera-raw-previews/internal/logging"
)

// CacheStats is a snapshot of the preview cache.
type CacheStats struct {
	SourceFiles int
	Previews    int
	TotalBytes  int64
}

// StatsProvider reports cache statistics. The database implements it.
type StatsProvider interface {
	CacheStats() (CacheStats, error)
}

// Collector periodically refreshes the cache and database gauges.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a collector. dbPath is the SQLite database file whose
// size, with its WAL and SHM companions, is exported.
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

// Stop ends the collection loop. It must be called at most once.
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
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}
	stats, err := c.statsProvider.CacheStats()
	if err != nil {
		logging.Warn("Failed to collect preview cache stats: %v", err)
		return
	}

	PreviewCacheFiles.Set(float64(stats.SourceFiles))
	PreviewCacheCount.Set(float64(stats.Previews))
	PreviewCacheSize.Set(float64(stats.TotalBytes))

	logging.Debug("Metrics collected: source_files=%d, previews=%d, bytes=%d",
		stats.SourceFiles, stats.Previews, stats.TotalBytes)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	for label, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(size))
	}
}
