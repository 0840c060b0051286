package preview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"time"

	"camera-raw-previews/internal/exiftool"
	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/media"
	"camera-raw-previews/internal/mediatypes"
)

// Provider is what the host sees: a mime pattern to route by, a cheap
// availability gate, and preview generation.
type Provider interface {
	MimePattern() *regexp.Regexp
	IsAvailable(info FileInfo) bool
	GetThumbnail(ctx context.Context, file File, maxWidth, maxHeight int) (*Bitmap, bool)
}

// Prober lists the preview tags a file embeds.
type Prober interface {
	Probe(ctx context.Context, path string) (*exiftool.ProbeResult, error)
}

// Extractor dumps one embedded preview to a temporary file registered with
// tracker.
type Extractor interface {
	Extract(ctx context.Context, src, tag, ext string, tracker exiftool.Tracker) (string, error)
}

// Tool is the external metadata tool. *exiftool.Tool implements it.
type Tool interface {
	Prober
	Extractor
}

// Normalizer turns an artifact into a bounded JPEG. *media.Normalizer
// implements it.
type Normalizer interface {
	Normalize(ctx context.Context, path, ext string, maxWidth, maxHeight int) (*media.Result, error)
}

// Observer records pipeline metrics. The metrics package provides the
// implementation.
type Observer interface {
	// ObserveStage records the time spent reaching state.
	ObserveStage(state string, durationSeconds float64)
	// ObserveOutcome records a finished request. cause is "none" on
	// success.
	ObserveOutcome(outcome, cause string, durationSeconds float64)
	// ObserveTempFilesRemoved records how many files a request's drain
	// removed.
	ObserveTempFilesRemoved(count int)
}

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Pipeline is the preview Provider.
type Pipeline struct {
	caps       Capabilities
	normalizer Normalizer
	observer   Observer
}

var _ Provider = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// NewPipeline creates a Pipeline.
func NewPipeline(caps Capabilities, normalizer Normalizer, opts ...Option) *Pipeline {
	p := &Pipeline{caps: caps, normalizer: normalizer}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MimePattern matches the mime types this provider handles.
func (p *Pipeline) MimePattern() *regexp.Regexp {
	return mediatypes.ProviderPattern
}

// IsAvailable rejects empty files, and TIFF files when TIFF cannot be
// decoded. It never runs the external tool.
func (p *Pipeline) IsAvailable(info FileInfo) bool {
	if info == nil || info.Size() <= 0 {
		return false
	}
	if mediatypes.IsTIFFExtension(filepath.Ext(info.Name())) && !p.caps.TIFFDecode() {
		return false
	}
	return true
}

// GetThumbnail generates a JPEG preview no larger than maxWidth x
// maxHeight. Every failure is logged and reported as (nil, false).
func (p *Pipeline) GetThumbnail(ctx context.Context, file File, maxWidth, maxHeight int) (result *Bitmap, ok bool) {
	start := time.Now()
	req := &request{pipeline: p, files: &TempFiles{}, state: StateStart}
	if file != nil {
		req.name = file.Name()
	}

	defer func() {
		if rec := recover(); rec != nil {
			req.err = req.fail(req.state.failureCause(), fmt.Errorf("panic: %v", rec))
			logging.Error("Preview pipeline panic for %s: %v\n%s", req.name, rec, debug.Stack())
			result, ok = nil, false
		}
		removed := req.files.Drain()
		if p.observer != nil {
			p.observer.ObserveTempFilesRemoved(removed)
		}
		req.finish(time.Since(start))
	}()

	bmp, err := req.run(ctx, file, maxWidth, maxHeight)
	if err != nil {
		req.err = err
		return nil, false
	}
	return bmp, true
}

// request is the state of one GetThumbnail call.
type request struct {
	pipeline *Pipeline
	files    *TempFiles
	state    State
	name     string
	tag      Tag
	stageAt  time.Time
	err      *Error
}

func (r *request) run(ctx context.Context, file File, maxWidth, maxHeight int) (*Bitmap, *Error) {
	p := r.pipeline
	r.stageAt = time.Now()

	if file == nil {
		return nil, r.fail(CauseSourceUnavailable, errors.New("no file"))
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, r.fail(CauseInvalidResult, fmt.Errorf("%w: %dx%d", media.ErrInvalidBounds, maxWidth, maxHeight))
	}

	// Start -> LocalFile
	if err := ctx.Err(); err != nil {
		return nil, r.fail(CauseSourceUnavailable, err)
	}
	path, err := file.LocalPath(ctx, r.files)
	if err != nil {
		return nil, r.fail(CauseSourceUnavailable, err)
	}
	r.advance(StateLocalFile)

	// LocalFile -> Probed
	if err := ctx.Err(); err != nil {
		return nil, r.fail(CauseProbeFailure, err)
	}
	tool, err := p.caps.Tool()
	if err != nil {
		return nil, r.fail(CauseProbeFailure, err)
	}
	probe, err := tool.Probe(ctx, path)
	if err != nil {
		return nil, r.fail(CauseProbeFailure, err)
	}
	r.advance(StateProbed)

	// Probed -> Selected
	sel, err := Select(probe, p.caps.TIFFDecode())
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			r.tag = perr.Tag
			return nil, r.fail(perr.Cause, perr.Err)
		}
		return nil, r.fail(CauseNoPreviewAvailable, err)
	}
	r.tag = sel.Tag
	r.advance(StateSelected)

	// Selected -> Extracted
	if err := ctx.Err(); err != nil {
		return nil, r.fail(CauseExtractionFailure, err)
	}
	artifact := path
	if sel.Tag != TagSourceFile {
		artifact, err = tool.Extract(ctx, path, string(sel.Tag), sel.Ext, r.files)
		if err != nil {
			return nil, r.fail(CauseExtractionFailure, err)
		}
	}
	r.advance(StateExtracted)

	// Extracted -> Normalized
	res, err := p.normalizer.Normalize(ctx, artifact, sel.Ext, maxWidth, maxHeight)
	if err != nil {
		cause := CauseDecodeFailure
		if errors.Is(err, media.ErrEncode) {
			cause = CauseEncodeFailure
		}
		return nil, r.fail(cause, err)
	}
	r.advance(StateNormalized)

	// Normalized -> Done
	if res == nil {
		return nil, r.fail(CauseInvalidResult, errors.New("normalizer returned no result"))
	}
	bmp, err := NewBitmap(res.Data)
	if err != nil {
		return nil, r.fail(CauseInvalidResult, err)
	}
	r.advance(StateDone)
	return bmp, nil
}

func (r *request) advance(next State) {
	now := time.Now()
	if o := r.pipeline.observer; o != nil {
		o.ObserveStage(next.String(), now.Sub(r.stageAt).Seconds())
	}
	r.stageAt = now
	r.state = next
}

func (r *request) fail(cause Cause, err error) *Error {
	return &Error{
		Cause: cause,
		State: r.state,
		Tag:   r.tag,
		Path:  r.name,
		Err:   err,
	}
}

// finish logs and records the outcome of the request.
func (r *request) finish(elapsed time.Duration) {
	o := r.pipeline.observer
	if r.err == nil {
		logging.Debug("Preview for %s from %s in %v", r.name, r.tag, elapsed)
		if o != nil {
			o.ObserveOutcome(OutcomeSuccess, CauseNone.String(), elapsed.Seconds())
		}
		return
	}

	r.state = StateFailed
	switch r.err.Cause {
	case CauseNoPreviewAvailable, CauseMissingCapability:
		logging.Info("No preview for %s: %v", fileClass(r.name), r.err)
	default:
		logging.Warn("Preview failed for %s: %v", fileClass(r.name), r.err)
	}
	if o != nil {
		o.ObserveOutcome(OutcomeFailure, r.err.Cause.String(), elapsed.Seconds())
	}
}

// fileClass describes a file for logs by its name and mime type.
func fileClass(name string) string {
	return fmt.Sprintf("%s [%s]", name, mediatypes.MimeTypeForPath(name))
}
