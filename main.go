package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camera-raw-previews/internal/cache"
	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/exiftool"
	"camera-raw-previews/internal/filesystem"
	"camera-raw-previews/internal/handlers"
	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/media"
	"camera-raw-previews/internal/memory"
	"camera-raw-previews/internal/metrics"
	"camera-raw-previews/internal/middleware"
	"camera-raw-previews/internal/preview"
	"camera-raw-previews/internal/startup"
	"camera-raw-previews/internal/warmup"
	"camera-raw-previews/internal/workers"

	"github.com/gorilla/mux"
)

const statsInterval = time.Minute

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		config.MediaDir:    "media",
		config.CacheDir:    "cache",
		config.DatabaseDir: "database",
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure-Go decoders: %v", err)
		}
	}
	defer media.ShutdownVips()

	caps := newCapabilities(config)
	tool, toolErr := caps.Tool()
	var command []string
	if et, ok := tool.(*exiftool.Tool); ok {
		command = et.Command()
	}
	startup.LogCapabilities(startup.Capabilities{
		ExiftoolCommand: command,
		ExiftoolErr:     toolErr,
		Vips:            media.IsVipsAvailable(),
		TIFFDecode:      caps.TIFFDecode(),
	})
	metrics.SetCapabilities(toolErr == nil, media.IsVipsAvailable(), caps.TIFFDecode())

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	var store *cache.Store
	if config.CacheEnabled {
		store = cache.New(db, config.CacheDir)
	}

	collector := metrics.NewCollector(db, config.DatabasePath, statsInterval)
	collector.Start()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	normalizer := media.NewNormalizer(
		media.WithVips(config.VipsEnabled),
		media.WithObserver(metrics.NewMediaObserver()),
	)
	pipeline := preview.NewPipeline(caps, normalizer, preview.WithObserver(metrics.NewPreviewObserver()))

	deps := handlers.Dependencies{
		Provider:     pipeline,
		Capabilities: caps,
		Store:        store,
		Stats:        db,
		Limiter:      workers.NewLimiter(config.PreviewWorkers, workers.WithObserver(metrics.NewWorkersObserver())),
		Gate:         monitor,
		VipsEnabled:  media.IsVipsAvailable,
	}
	h, warmer := newHandlers(deps, config)
	if warmer != nil {
		warmer.Start()
	}

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogPreviewHits, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogPreviewHits = config.LogPreviewHits
	handler := middleware.Logger(loggingConfig)(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, collector, monitor, warmer)
		close(done)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done

	if err := db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
	startup.LogShutdownComplete()
}

// newCapabilities defers tool discovery and TIFF detection to first use.
func newCapabilities(config *startup.Config) *preview.Environment {
	detectTIFF := func() bool {
		return (config.VipsEnabled && media.VipsSupportsTIFF()) || config.NativeTIFF
	}
	locateTool := func() (preview.Tool, error) {
		command, err := exiftool.Locate(exiftool.LocateConfig{
			Command:   config.ExiftoolCommand,
			BundleDir: config.ExiftoolDir,
		})
		if err != nil {
			return nil, err
		}
		return exiftool.New(exiftool.NewExecRunner(command), exiftool.Options{
			Timeout:  config.ExiftoolTimeout,
			TempDir:  config.TempDir,
			Observer: metrics.NewExiftoolObserver(),
		}), nil
	}
	return preview.NewEnvironment(detectTIFF, locateTool)
}

// newHandlers builds the handlers and, when enabled and the cache is
// usable, a warmer feeding previews through them.
func newHandlers(deps handlers.Dependencies, config *startup.Config) (*handlers.Handlers, *warmup.Warmer) {
	if !config.WarmupEnabled || deps.Store == nil {
		return handlers.New(deps, config), nil
	}

	warmCfg := warmup.DefaultConfig(config.MediaDir)
	warmCfg.Workers = config.WarmupWorkers
	warmCfg.Interval = config.WarmupInterval

	// The warmer needs the handlers and the handlers report its status.
	var warmer *warmup.Warmer
	deps.Warmup = warmupStatusFunc(func() warmup.Status { return warmer.Status() })
	h := handlers.New(deps, config)
	warmer = warmup.New(h, warmCfg)
	return h, warmer
}

type warmupStatusFunc func() warmup.Status

func (f warmupStatusFunc) Status() warmup.Status { return f() }

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	sm := http.NewServeMux()
	sm.Handle("/metrics", h.MetricsHandler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           sm,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor, warmer *warmup.Warmer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping background tasks")
	if warmer != nil {
		warmer.Stop()
	}
	collector.Stop()
	monitor.Stop()
	startup.LogShutdownStepComplete("Background tasks stopped")
}
