package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camera-raw-previews/internal/logging"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
)

// DefaultQuality is the JPEG quality of every generated preview.
const DefaultQuality = 90

var (
	// ErrDecode is returned when an artifact cannot be decoded.
	ErrDecode = errors.New("decode failed")
	// ErrEncode is returned when the result cannot be resized or encoded.
	ErrEncode = errors.New("encode failed")
	// ErrInvalidBounds is returned for non-positive target bounds.
	ErrInvalidBounds = errors.New("invalid bounds")
)

// Observer records normalization phase timings. The metrics package
// provides the implementation.
type Observer interface {
	// ObservePhase records one phase ("decode", "resize", "encode") of an
	// artifact in format ("jpg" or "tiff") on backend ("vips" or "native").
	ObservePhase(format, backend, phase string, durationSeconds float64)
}

// Result is a normalized preview.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Normalizer decodes, orients, shrinks and re-encodes preview artifacts.
type Normalizer struct {
	quality  int
	useVips  bool
	observer Observer
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithVips lets the normalizer use libvips when it is initialized.
func WithVips(enabled bool) NormalizerOption {
	return func(n *Normalizer) { n.useVips = enabled }
}

// WithObserver attaches a phase timing observer.
func WithObserver(o Observer) NormalizerOption {
	return func(n *Normalizer) { n.observer = o }
}

// NewNormalizer creates a Normalizer producing quality 90 JPEGs.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{quality: DefaultQuality}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize turns the artifact at path, whose container format is given by
// ext ("jpg" or "tiff"), into a JPEG no larger than maxWidth x maxHeight.
func (n *Normalizer) Normalize(ctx context.Context, path, ext string, maxWidth, maxHeight int) (*Result, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBounds, maxWidth, maxHeight)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDecode, filepath.Base(path))
	}

	if n.useVips && vipsSupports(ext) {
		start := time.Now()
		data, w, h, err := normalizeWithVips(path, maxWidth, maxHeight, n.quality)
		n.observe(ext, "vips", "total", start)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Width: w, Height: h}, nil
	}

	if err := checkPixelBudget(path); err != nil {
		return nil, err
	}

	start := time.Now()
	var img image.Image
	switch ext {
	case "tiff", "tif":
		img, err = decodeTIFF(path)
	default:
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(path), err)
	}
	n.observe(ext, "native", "decode", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	n.observe(ext, "native", "resize", start)

	start = time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	n.observe(ext, "native", "encode", start)

	bounds := fitted.Bounds()
	logging.Debug("Normalized %s: %dx%d -> %dx%d (%d bytes)", filepath.Base(path),
		img.Bounds().Dx(), img.Bounds().Dy(), bounds.Dx(), bounds.Dy(), buf.Len())

	return &Result{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func (n *Normalizer) observe(format, backend, phase string, start time.Time) {
	if n.observer != nil {
		n.observer.ObservePhase(format, backend, phase, time.Since(start).Seconds())
	}
}

// decodeTIFF decodes a TIFF artifact and rotates it upright using its EXIF
// orientation.
func decodeTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, err
	}
	return ApplyOrientation(img, readFileOrientation(path)), nil
}
