// Package metrics provides Prometheus instrumentation for the preview
// service. All metrics are prefixed with "camera_raw_previews_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Preview Pipeline Metrics
//
//   - PreviewRequestsTotal: pipeline runs by outcome and failure cause
//   - PreviewDuration: pipeline duration by outcome
//   - PreviewStageDuration: time spent reaching each pipeline state
//   - PreviewTempFilesRemoved: temporary files cleaned up after requests
//   - PreviewsInProgress, PreviewQueueWait: worker pool pressure
//   - NormalizePhaseDuration: decode, resize and encode timings by format
//     and backend
//
// ## External Tool Metrics
//
//   - ExiftoolInvocationsTotal: probe, extract and copy_orientation calls
//     by status
//   - ExiftoolDuration: invocation duration by operation
//   - CapabilityAvailable: detected exiftool, libvips and TIFF decoding
//
// ## Cache and Database Metrics
//
//   - PreviewCacheHits, PreviewCacheMisses, PreviewCacheStale
//   - PreviewCacheSize, PreviewCacheCount, PreviewCacheFiles (refreshed by
//     Collector)
//   - DBQueryTotal, DBQueryDuration, DBConnectionsOpen, DBSizeBytes
//
// ## Filesystem Metrics
//
// NFS stale handle retries by operation and volume. The filesystem,
// exiftool, media and preview packages cannot import this package, so they
// expose Observer interfaces implemented here:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	tool := exiftool.New(runner, exiftool.Options{Observer: metrics.NewExiftoolObserver()})
//
// # Usage
//
// Metrics are served on a separate port (METRICS_PORT, default 9091) by the
// promhttp handler. Call InitializeMetrics once at startup.
package metrics
