package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/memory"
	"camera-raw-previews/internal/workers"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults for values that are not plain strings.
const (
	DefaultExiftoolTimeout = 30 * time.Second
	DefaultPreviewMaxSize  = 1024
	DefaultWarmupWorkers   = 2
	maxPreviewWorkers      = 16
)

// Config holds all application configuration
type Config struct {
	MediaDir        string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogPreviewHits  bool
	LogHealthChecks bool

	// ExiftoolCommand is an explicit command line for the metadata tool.
	ExiftoolCommand string
	// ExiftoolDir holds a bundled distribution of the tool.
	ExiftoolDir     string
	ExiftoolTimeout time.Duration

	VipsEnabled bool
	// NativeTIFF enables the pure-Go TIFF decoder when libvips cannot load TIFF.
	NativeTIFF bool

	PreviewMaxSize int
	PreviewWorkers int

	// WarmupEnabled pre-generates previews for the whole media directory.
	WarmupEnabled bool
	// WarmupInterval repeats the warm-up; zero runs it once at startup.
	WarmupInterval time.Duration
	WarmupWorkers  int

	// Derived paths
	DatabasePath string
	TempDir      string

	// CacheEnabled is false when the cache directory is not writable.
	CacheEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	loadEnvFile()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  MEDIA_DIR:           %s", config.MediaDir)
	logging.Info("  CACHE_DIR:           %s", config.CacheDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  EXIFTOOL:            %s", valueOrUnset(config.ExiftoolCommand))
	logging.Info("  EXIFTOOL_DIR:        %s", valueOrUnset(config.ExiftoolDir))
	logging.Info("  EXIFTOOL_TIMEOUT:    %v", config.ExiftoolTimeout)
	logging.Info("  VIPS_ENABLED:        %v", config.VipsEnabled)
	logging.Info("  NATIVE_TIFF:         %v", config.NativeTIFF)
	logging.Info("  PREVIEW_MAX_SIZE:    %d", config.PreviewMaxSize)
	logging.Info("  PREVIEW_WORKERS:     %d", config.PreviewWorkers)
	logging.Info("  PREVIEW_WARMUP:      %v", config.WarmupEnabled)
	if config.WarmupEnabled {
		logging.Info("  WARMUP_INTERVAL:     %v", config.WarmupInterval)
		logging.Info("  WARMUP_WORKERS:      %d", config.WarmupWorkers)
	}
	logging.Info("  LOG_PREVIEW_HITS:    %v", config.LogPreviewHits)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Media directory (absolute): %s", config.MediaDir)
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)

	// Check media directory (warning only)
	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	// Ensure base database directory exists (required for database)
	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.CacheEnabled = setupOptionalDir(filepath.Join(config.CacheDir, "preview"), "preview cache")
	if !setupOptionalDir(config.TempDir, "temporary") {
		logging.Warn("  Falling back to system temp directory: %s", os.TempDir())
		config.TempDir = os.TempDir()
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:      ENABLED (required)")
	logging.Info("    Preview cache: %s", enabledString(config.CacheEnabled))
	logging.Info("    Metrics:       %s", enabledString(config.MetricsEnabled))
	logging.Info("    Warm-up:       %s", enabledString(config.WarmupEnabled && config.CacheEnabled))

	return config, nil
}

// configFromEnv reads and normalizes every setting without touching the
// filesystem beyond resolving absolute paths.
func configFromEnv() (*Config, error) {
	mediaDir, err := filepath.Abs(getEnv("MEDIA_DIR", "/media"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	cacheDir, err := filepath.Abs(getEnv("CACHE_DIR", "/cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	databaseDir, err := filepath.Abs(getEnv("DATABASE_DIR", "/database"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	exiftoolDir := getEnv("EXIFTOOL_DIR", "")
	if exiftoolDir != "" {
		if exiftoolDir, err = filepath.Abs(exiftoolDir); err != nil {
			return nil, fmt.Errorf("failed to resolve exiftool directory path: %w", err)
		}
	}

	return &Config{
		MediaDir:        mediaDir,
		CacheDir:        cacheDir,
		DatabaseDir:     databaseDir,
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9091"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogPreviewHits:  getEnvBool("LOG_PREVIEW_HITS", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		ExiftoolCommand: getEnv("EXIFTOOL", ""),
		ExiftoolDir:     exiftoolDir,
		ExiftoolTimeout: getEnvDuration("EXIFTOOL_TIMEOUT", DefaultExiftoolTimeout),
		VipsEnabled:     getEnvBool("VIPS_ENABLED", true),
		NativeTIFF:      getEnvBool("NATIVE_TIFF", true),
		PreviewMaxSize:  getEnvInt("PREVIEW_MAX_SIZE", DefaultPreviewMaxSize),
		PreviewWorkers:  workers.ForMixed(maxPreviewWorkers),
		WarmupEnabled:   getEnvBool("PREVIEW_WARMUP", false),
		WarmupInterval:  getEnvDuration("WARMUP_INTERVAL", 0),
		WarmupWorkers:   max(getEnvInt("WARMUP_WORKERS", DefaultWarmupWorkers), 1),
		DatabasePath:    filepath.Join(databaseDir, "previews.db"),
		TempDir:         filepath.Join(cacheDir, "tmp"),
	}, nil
}

// loadEnvFile merges ENV_FILE, or ./.env when present, into the process
// environment. Variables already set win.
func loadEnvFile() {
	path := getEnv("ENV_FILE", "")
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		logging.Warn("Failed to load env file %s: %v", path, err)
		return
	}
	logging.Info("Loaded environment from %s", path)
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// Capabilities summarizes what the preview pipeline can do on this host.
type Capabilities struct {
	ExiftoolCommand []string
	ExiftoolErr     error
	Vips            bool
	TIFFDecode      bool
}

// LogCapabilities logs the detected preview capabilities.
func LogCapabilities(c Capabilities) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PREVIEW CAPABILITIES")
	logging.Info("------------------------------------------------------------")

	if c.ExiftoolErr != nil {
		logging.Warn("  ExifTool:     NOT FOUND (%v)", c.ExiftoolErr)
		logging.Warn("  RAW and InDesign previews will not be available")
	} else {
		logging.Info("  [OK] ExifTool: %s", strings.Join(c.ExiftoolCommand, " "))
	}
	logging.Info("  libvips:      %s", enabledString(c.Vips))
	logging.Info("  TIFF decode:  %s", enabledString(c.TIFFDecode))
	if !c.TIFFDecode {
		logging.Info("  TIFF previews will be skipped")
	}
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", formatBytes(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", formatBytes(result.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", formatBytes(result.GoMemLimit), result.Ratio*100)
	default:
		logging.Info("  No memory limit configured")
		logging.Info("  Set MEMORY_LIMIT or GOMEMLIMIT to enable backpressure")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logPreviewHits, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logPreviewHits {
		logging.Info("    Cache hit logging: ON")
	} else {
		logging.Info("    Cache hit logging: OFF (set LOG_PREVIEW_HITS=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Previews:      http://0.0.0.0:%s/api/preview/{path}", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/health", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ___  ___ __    __    ___               _
  / _ \/ _ |\ \  / /   / _ \_______ _  __(_)__ _    _____
 / , _/ __ | \ \/ /   / ___/ __/ -_) |/ / / -_) |/|/ (_-<
/_/|_/_/ |_|  \__/   /_/  /_/  \__/|___/_/\__/|__,__/___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
