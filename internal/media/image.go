package media

import (
	"fmt"
	"image"
	"os"

	"camera-raw-previews/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImagePixels is the largest artifact the pure Go backend decodes.
	// Embedded JpgFromRaw previews of high resolution bodies reach ~60MP;
	// anything bigger is more likely corrupt than real.
	MaxImagePixels = 100_000_000
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// FitDimensions returns the size of a srcW x srcH image scaled down to fit
// within maxW x maxH with its aspect ratio kept. Images that already fit are
// returned unchanged.
func FitDimensions(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return srcW, srcH
	}
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}

	srcRatio := float64(srcW) / float64(srcH)
	maxRatio := float64(maxW) / float64(maxH)

	var w, h int
	if srcRatio > maxRatio {
		w = maxW
		h = int(float64(maxW)/srcRatio + 0.5)
	} else {
		h = maxH
		w = int(float64(maxH)*srcRatio + 0.5)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// checkPixelBudget rejects artifacts whose header announces an absurd size.
func checkPixelBudget(path string) error {
	dims, err := GetImageDimensions(path)
	if err != nil {
		// Let the real decode report the problem.
		logging.Debug("Could not read dimensions of %s: %v", path, err)
		return nil
	}
	if dims.Width*dims.Height > MaxImagePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, dims.Width, dims.Height, MaxImagePixels)
	}
	return nil
}
