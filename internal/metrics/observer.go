package metrics

import (
	"time"

	"camera-raw-previews/internal/exiftool"
	"camera-raw-previews/internal/filesystem"
	"camera-raw-previews/internal/media"
	"camera-raw-previews/internal/preview"
	"camera-raw-previews/internal/workers"
)

// filesystemObserver implements filesystem.Observer.
type filesystemObserver struct{}

// NewFilesystemObserver returns an observer recording NFS retry metrics.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetryAttempt(op, volume string) {
	FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetrySuccess(op, volume string) {
	FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetryFailure(op, volume string) {
	FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetryDuration(op, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(durationSeconds)
}

func (filesystemObserver) ObserveStaleError(op, volume string) {
	FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
}

// exiftoolObserver implements exiftool.Observer.
type exiftoolObserver struct{}

// NewExiftoolObserver returns an observer recording tool invocations.
func NewExiftoolObserver() exiftool.Observer {
	return exiftoolObserver{}
}

func (exiftoolObserver) ObserveInvocation(operation string, durationSeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ExiftoolInvocationsTotal.WithLabelValues(operation, status).Inc()
	ExiftoolDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// mediaObserver implements media.Observer.
type mediaObserver struct{}

// NewMediaObserver returns an observer recording normalization phases.
func NewMediaObserver() media.Observer {
	return mediaObserver{}
}

func (mediaObserver) ObservePhase(format, backend, phase string, durationSeconds float64) {
	NormalizePhaseDuration.WithLabelValues(format, backend, phase).Observe(durationSeconds)
}

// previewObserver implements preview.Observer.
type previewObserver struct{}

// NewPreviewObserver returns an observer recording pipeline outcomes.
func NewPreviewObserver() preview.Observer {
	return previewObserver{}
}

func (previewObserver) ObserveStage(state string, durationSeconds float64) {
	PreviewStageDuration.WithLabelValues(state).Observe(durationSeconds)
}

func (previewObserver) ObserveOutcome(outcome, cause string, durationSeconds float64) {
	PreviewRequestsTotal.WithLabelValues(outcome, cause).Inc()
	PreviewDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

func (previewObserver) ObserveTempFilesRemoved(count int) {
	if count > 0 {
		PreviewTempFilesRemoved.Add(float64(count))
	}
}

// workersObserver implements workers.Observer.
type workersObserver struct{}

// NewWorkersObserver returns an observer recording preview queueing.
func NewWorkersObserver() workers.Observer {
	return workersObserver{}
}

func (workersObserver) ObserveQueueWait(d time.Duration) {
	PreviewQueueWait.Observe(d.Seconds())
}

func (workersObserver) ObserveInProgress(n int) {
	PreviewsInProgress.Set(float64(n))
}
