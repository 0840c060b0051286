package warmup

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/mediatypes"
	"camera-raw-previews/internal/metrics"
)

// walker is a single warm-up pass: one goroutine walks the tree, workers
// warm the files it finds.
type walker struct {
	gen    Generator
	config Config
	jobs   chan string

	files     atomic.Int64
	generated atomic.Int64
	cached    atomic.Int64
	declined  atomic.Int64
	errors    atomic.Int64
}

func newWalker(gen Generator, config Config) *walker {
	return &walker{
		gen:    gen,
		config: config,
		jobs:   make(chan string, config.ChannelBuffer),
	}
}

func (wk *walker) walk(ctx context.Context) (Stats, error) {
	logging.Info("Starting preview warm-up of %s with %d workers", wk.config.MediaDir, wk.config.Workers)
	metrics.WarmupWorkers.Set(float64(wk.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < wk.config.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wk.worker(ctx, id)
		}(i)
	}

	err := wk.enqueue(ctx)
	close(wk.jobs)
	wg.Wait()

	if err == nil {
		err = ctx.Err()
	}
	return wk.stats(), err
}

// enqueue walks the media directory and queues every provider file.
// Unreadable entries are logged and skipped.
func (wk *walker) enqueue(ctx context.Context) error {
	root := wk.config.MediaDir
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("Warm-up: error accessing %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}

		if wk.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !mediatypes.MatchesProvider(mediatypes.MimeTypeForPath(d.Name())) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			//nolint:nilerr // skip this file, keep walking
			return nil
		}

		select {
		case wk.jobs <- filepath.ToSlash(rel):
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (wk *walker) worker(ctx context.Context, id int) {
	logging.Debug("Warm-up worker %d started", id)
	defer logging.Debug("Warm-up worker %d finished", id)

	for rel := range wk.jobs {
		if ctx.Err() != nil {
			// Drain so the walker never blocks.
			continue
		}

		wk.files.Add(1)
		result, err := wk.gen.Warm(ctx, rel)
		if err != nil {
			wk.errors.Add(1)
			metrics.WarmupFilesTotal.WithLabelValues("error").Inc()
			logging.Warn("Warm-up: %s: %v", rel, err)
			continue
		}

		switch result {
		case Generated:
			wk.generated.Add(1)
		case Cached:
			wk.cached.Add(1)
		case Declined:
			wk.declined.Add(1)
		}
		metrics.WarmupFilesTotal.WithLabelValues(result.String()).Inc()
	}
}

func (wk *walker) stats() Stats {
	return Stats{
		Files:     wk.files.Load(),
		Generated: wk.generated.Load(),
		Cached:    wk.cached.Load(),
		Declined:  wk.declined.Load(),
		Errors:    wk.errors.Load(),
	}
}
