package media

import (
	"fmt"
	"path/filepath"
	"sync"

	"camera-raw-previews/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogSettings maps the application log level onto the libvips verbosity
// and a handler forwarding libvips messages to the application logger.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(domain string, l vips.LogLevel, msg string) {
		switch {
		case l <= vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case l == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}

	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward
	case logging.LevelWarn:
		return vips.LogLevelError, forward
	case logging.LevelError:
		return vips.LogLevelCritical, forward
	default:
		return vips.LogLevelWarning, forward
	}
}

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() to respect LOG_LEVEL
	verbosity, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, verbosity)

	if err := startVips(vips.Startup, &vips.Config{
		ConcurrencyLevel: 1,                // one pipeline thread per request; requests run in parallel
		MaxCacheMem:      50 * 1024 * 1024, // 50MB cache
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	}); err != nil {
		return err
	}

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// startVips runs start and turns its failure into an error. govips panics
// when vips_init fails or the linked libvips is older than 8.x.
func startVips(start func(*vips.Config), config *vips.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("libvips startup failed: %v", r)
		}
	}()
	start(config)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsSupportsTIFF reports whether the running libvips build can load TIFF.
func VipsSupportsTIFF() bool {
	return IsVipsAvailable() && vips.IsTypeSupported(vips.ImageTypeTIFF)
}

// vipsSupports reports whether libvips should handle an artifact with the
// given extension.
func vipsSupports(ext string) bool {
	if !IsVipsAvailable() {
		return false
	}
	switch ext {
	case "tiff", "tif":
		return vips.IsTypeSupported(vips.ImageTypeTIFF)
	case "jpg", "jpeg":
		return vips.IsTypeSupported(vips.ImageTypeJPEG)
	}
	return false
}

// vipsScales returns the per-axis factors taking an origW x origH image to
// exactly targetW x targetH. Each axis gets its own factor so rounding on one
// side never pushes the other past its bound. ok is false when no resize is
// needed.
func vipsScales(origW, origH, targetW, targetH int) (hScale, vScale float64, ok bool) {
	if origW <= 0 || origH <= 0 || (targetW >= origW && targetH >= origH) {
		return 1, 1, false
	}
	return float64(targetW) / float64(origW), float64(targetH) / float64(origH), true
}

// normalizeWithVips loads path with libvips, rotates it upright, shrinks it to
// fit maxWidth x maxHeight and exports JPEG without metadata.
func normalizeWithVips(path string, maxWidth, maxHeight, quality int) ([]byte, int, int, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: vips failed to load image: %v", ErrDecode, err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: vips auto-rotate failed: %v", ErrDecode, err)
	}

	origWidth, origHeight := ref.Width(), ref.Height()
	targetWidth, targetHeight := FitDimensions(origWidth, origHeight, maxWidth, maxHeight)
	logging.Debug("Vips loaded %s: %dx%d, fitting to %dx%d",
		filepath.Base(path), origWidth, origHeight, targetWidth, targetHeight)

	if hScale, vScale, ok := vipsScales(origWidth, origHeight, targetWidth, targetHeight); ok {
		if err := ref.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: vips resize failed: %v", ErrEncode, err)
		}
	}

	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: vips export failed: %v", ErrEncode, err)
	}
	return data, ref.Width(), ref.Height(), nil
}
