package metrics

import "camera-raw-previews/internal/preview"

// InitializeMetrics pre-populates the expected label combinations so every
// metric is exported from the first scrape. Call it once at startup.
func InitializeMetrics() {
	volumes := []string{"media", "cache", "database", "unknown"}
	for _, op := range []string{"stat", "open", "readdir"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	PreviewRequestsTotal.WithLabelValues(preview.OutcomeSuccess, preview.CauseNone.String())
	for c := preview.CauseSourceUnavailable; c <= preview.CauseInvalidResult; c++ {
		PreviewRequestsTotal.WithLabelValues(preview.OutcomeFailure, c.String())
	}
	PreviewDuration.WithLabelValues(preview.OutcomeSuccess)
	PreviewDuration.WithLabelValues(preview.OutcomeFailure)

	for s := preview.StateLocalFile; s <= preview.StateDone; s++ {
		PreviewStageDuration.WithLabelValues(s.String())
	}

	for _, op := range []string{"probe", "extract", "copy_orientation"} {
		ExiftoolInvocationsTotal.WithLabelValues(op, "success")
		ExiftoolInvocationsTotal.WithLabelValues(op, "error")
		ExiftoolDuration.WithLabelValues(op)
	}

	for _, format := range []string{"jpg", "tiff"} {
		for _, phase := range []string{"decode", "resize", "encode"} {
			NormalizePhaseDuration.WithLabelValues(format, "native", phase)
		}
		NormalizePhaseDuration.WithLabelValues(format, "vips", "total")
	}

	for _, op := range []string{"initialize_schema", "upsert_source", "get_preview", "save_preview", "delete_preview",
		"list_preview_folders", "delete_folder", "cache_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, result := range []string{"generated", "cached", "declined", "error"} {
		WarmupFilesTotal.WithLabelValues(result)
	}
	WarmupRunsTotal.WithLabelValues("complete")
	WarmupRunsTotal.WithLabelValues("canceled")
}

// SetCapabilities publishes which optional capabilities were detected.
func SetCapabilities(exiftool, vips, tiffDecode bool) {
	CapabilityAvailable.WithLabelValues("exiftool").Set(boolGauge(exiftool))
	CapabilityAvailable.WithLabelValues("vips").Set(boolGauge(vips))
	CapabilityAvailable.WithLabelValues("tiff_decode").Set(boolGauge(tiffDecode))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
