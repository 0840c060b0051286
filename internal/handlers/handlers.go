package handlers

import (
	"context"
	"time"

	"camera-raw-previews/internal/cache"
	"camera-raw-previews/internal/filesystem"
	"camera-raw-previews/internal/metrics"
	"camera-raw-previews/internal/preview"
	"camera-raw-previews/internal/startup"
	"camera-raw-previews/internal/warmup"
	"camera-raw-previews/internal/workers"

	"golang.org/x/sync/singleflight"
)

// defaultPreviewTimeout bounds one pipeline run, queueing included.
const defaultPreviewTimeout = 2 * time.Minute

// Gate holds back new work, e.g. while memory is critical.
type Gate interface {
	Wait(ctx context.Context) error
}

// WarmupStatus reports the state of the background warm-up.
type WarmupStatus interface {
	Status() warmup.Status
}

// Dependencies are the collaborators of Handlers. Store, Stats, Gate and
// Warmup are optional.
type Dependencies struct {
	Provider     preview.Provider
	Capabilities preview.Capabilities
	Store        *cache.Store
	Stats        metrics.StatsProvider
	Limiter      *workers.Limiter
	Gate         Gate
	Warmup       WarmupStatus
	VipsEnabled  func() bool
}

// Handlers serves the preview API.
type Handlers struct {
	provider       preview.Provider
	caps           preview.Capabilities
	store          *cache.Store
	stats          metrics.StatsProvider
	limiter        *workers.Limiter
	gate           Gate
	warmup         WarmupStatus
	vipsEnabled    func() bool
	flight         singleflight.Group
	mediaDir       string
	maxSize        int
	retry          filesystem.RetryConfig
	previewTimeout time.Duration
	startTime      time.Time
}

// New creates Handlers serving files below config.MediaDir.
func New(deps Dependencies, config *startup.Config) *Handlers {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = workers.NewLimiter(config.PreviewWorkers)
	}
	vips := deps.VipsEnabled
	if vips == nil {
		vips = func() bool { return false }
	}
	maxSize := config.PreviewMaxSize
	if maxSize <= 0 {
		maxSize = startup.DefaultPreviewMaxSize
	}

	return &Handlers{
		provider:       deps.Provider,
		caps:           deps.Capabilities,
		store:          deps.Store,
		stats:          deps.Stats,
		limiter:        limiter,
		gate:           deps.Gate,
		warmup:         deps.Warmup,
		vipsEnabled:    vips,
		mediaDir:       config.MediaDir,
		maxSize:        maxSize,
		retry:          filesystem.DefaultRetryConfig(),
		previewTimeout: defaultPreviewTimeout,
		startTime:      time.Now(),
	}
}
