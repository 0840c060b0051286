package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"

	"camera-raw-previews/internal/mediatypes"
)

// Bitmap is a finished preview handed to the host.
type Bitmap struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// NewBitmap wraps encoded JPEG data after checking that it parses and has
// a positive size.
func NewBitmap(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, errors.New("empty bitmap")
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bitmap does not decode: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("bitmap has invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return &Bitmap{
		Data:     data,
		Width:    cfg.Width,
		Height:   cfg.Height,
		MimeType: mediatypes.MimeJPEG,
	}, nil
}
