// Package startup loads the preview service configuration and writes the
// startup and shutdown log.
//
// # Configuration
//
// [LoadConfig] reads the environment:
//
//   - MEDIA_DIR: root of the files previews are served for (default: /media)
//   - CACHE_DIR: preview cache and temporary artifacts (default: /cache)
//   - DATABASE_DIR: preview index database (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9091)
//   - METRICS_ENABLED: enable the metrics server (default: true)
//   - EXIFTOOL: explicit exiftool command line, e.g. "perl /opt/exiftool/exiftool"
//   - EXIFTOOL_DIR: directory holding a bundled exiftool distribution
//   - EXIFTOOL_TIMEOUT: bound on each exiftool invocation (default: 30s)
//   - VIPS_ENABLED: use libvips when available (default: true)
//   - NATIVE_TIFF: fall back to the pure-Go TIFF decoder (default: true)
//   - PREVIEW_MAX_SIZE: largest preview edge in pixels (default: 1024)
//   - PREVIEW_WORKERS: concurrent preview pipelines (default: 1.5 per CPU, at most 16)
//   - PREVIEW_WARMUP: pre-generate previews for MEDIA_DIR at startup (default: false)
//   - WARMUP_INTERVAL: repeat the warm-up at this interval (default: once)
//   - WARMUP_WORKERS: files warmed in parallel (default: 2)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_PREVIEW_HITS, LOG_HEALTH_CHECKS: access log filters (default: true)
//
// Variables may also come from ENV_FILE, or ./.env when present. Values
// already in the environment take precedence.
//
// The database directory must be writable. An unwritable cache directory
// disables the preview cache; previews are then generated on every request.
//
// # Build Information
//
// Version, Commit and BuildTime are injected with -ldflags and exposed via
// [GetBuildInfo].
package startup
