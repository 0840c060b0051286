package warmup

import (
	"context"
	"errors"
	"sync"
	"time"

	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/metrics"
)

// ErrRunning is returned by Run while another run is in progress.
var ErrRunning = errors.New("warm-up already running")

// Result is what a Generator did for one file.
type Result int

const (
	// Generated means a new preview was rendered and cached.
	Generated Result = iota
	// Cached means an up-to-date preview already existed.
	Cached
	// Declined means the file has no usable preview.
	Declined
)

func (r Result) String() string {
	switch r {
	case Generated:
		return "generated"
	case Cached:
		return "cached"
	case Declined:
		return "declined"
	}
	return "unknown"
}

// Generator makes sure the preview of one file is cached. rel is the
// slash-separated path relative to the media directory.
type Generator interface {
	Warm(ctx context.Context, rel string) (Result, error)
}

// Config configures a Warmer.
type Config struct {
	MediaDir string
	// Workers is the number of files warmed in parallel.
	Workers int
	// ChannelBuffer is the size of the job queue between walker and workers.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
	// Interval repeats the run; zero runs once.
	Interval time.Duration
}

// DefaultConfig returns a Config for mediaDir with two workers.
func DefaultConfig(mediaDir string) Config {
	return Config{
		MediaDir:      mediaDir,
		Workers:       2,
		ChannelBuffer: 256,
		SkipHidden:    true,
	}
}

// Stats counts the files of one run.
type Stats struct {
	Files     int64 `json:"files"`
	Generated int64 `json:"generated"`
	Cached    int64 `json:"cached"`
	Declined  int64 `json:"declined"`
	Errors    int64 `json:"errors"`
}

// Status describes the warmer for health reporting.
type Status struct {
	Running      bool      `json:"running"`
	Runs         int       `json:"runs"`
	LastRun      time.Time `json:"lastRun,omitempty"`
	LastDuration string    `json:"lastDuration,omitempty"`
	LastStats    *Stats    `json:"lastStats,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
}

// Warmer runs warm-up passes over the media directory.
type Warmer struct {
	gen    Generator
	config Config

	mu           sync.Mutex
	running      bool
	runs         int
	lastRun      time.Time
	lastDuration time.Duration
	lastStats    *Stats
	lastErr      error

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Warmer. Workers below one are raised to one.
func New(gen Generator, config Config) *Warmer {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.ChannelBuffer < 1 {
		config.ChannelBuffer = config.Workers
	}
	return &Warmer{gen: gen, config: config}
}

// Start runs the warm-up in the background: once immediately, then every
// Interval until Stop.
func (w *Warmer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		w.runLogged(ctx)
		if w.config.Interval <= 0 {
			return
		}

		ticker := time.NewTicker(w.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runLogged(ctx)
			}
		}
	}()
}

// Stop cancels a background run started by Start and waits for it.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			return
		}
		w.cancel()
		<-w.done
	})
}

func (w *Warmer) runLogged(ctx context.Context) {
	if _, err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("Preview warm-up failed: %v", err)
	}
}

// Run performs one warm-up pass and returns its counts. A canceled run
// returns the counts so far together with the context error.
func (w *Warmer) Run(ctx context.Context) (Stats, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return Stats{}, ErrRunning
	}
	w.running = true
	w.mu.Unlock()
	metrics.WarmupRunning.Set(1)

	start := time.Now()
	stats, err := newWalker(w.gen, w.config).walk(ctx)
	elapsed := time.Since(start)

	status := "complete"
	if ctx.Err() != nil {
		status = "canceled"
	}
	metrics.WarmupRunsTotal.WithLabelValues(status).Inc()
	metrics.WarmupRunDuration.Observe(elapsed.Seconds())
	metrics.WarmupRunning.Set(0)

	logging.Info("Preview warm-up %s in %v: %d files, %d generated, %d cached, %d declined, %d errors",
		status, elapsed.Round(time.Millisecond), stats.Files, stats.Generated, stats.Cached, stats.Declined, stats.Errors)

	w.mu.Lock()
	w.running = false
	w.runs++
	w.lastRun = start
	w.lastDuration = elapsed
	w.lastStats = &stats
	w.lastErr = err
	w.mu.Unlock()

	return stats, err
}

// Status returns the state of the warmer.
func (w *Warmer) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{
		Running: w.running,
		Runs:    w.runs,
		LastRun: w.lastRun,
	}
	if w.runs > 0 {
		s.LastDuration = w.lastDuration.Round(time.Millisecond).String()
		stats := *w.lastStats
		s.LastStats = &stats
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}
