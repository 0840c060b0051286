package preview

import (
	"sync"

	"camera-raw-previews/internal/exiftool"
)

// Capabilities reports what the running environment can do. Values are
// fixed for the life of the process.
type Capabilities interface {
	// TIFFDecode reports whether TIFF artifacts can be decoded.
	TIFFDecode() bool
	// Tool returns the external metadata tool.
	Tool() (Tool, error)
}

// Environment is a Capabilities whose values are detected lazily, at most
// once, and then shared by every request.
type Environment struct {
	tiff func() bool
	tool func() (Tool, error)
}

// NewEnvironment wraps the detection functions so each runs at most once.
// A nil detectTIFF means TIFF cannot be decoded.
func NewEnvironment(detectTIFF func() bool, locateTool func() (Tool, error)) *Environment {
	if detectTIFF == nil {
		detectTIFF = func() bool { return false }
	}
	if locateTool == nil {
		locateTool = func() (Tool, error) { return nil, exiftool.ErrToolNotFound }
	}
	return &Environment{
		tiff: sync.OnceValue(detectTIFF),
		tool: sync.OnceValues(locateTool),
	}
}

// TIFFDecode implements Capabilities.
func (e *Environment) TIFFDecode() bool {
	return e.tiff()
}

// Tool implements Capabilities.
func (e *Environment) Tool() (Tool, error) {
	return e.tool()
}

// StaticCapabilities is a Capabilities with fixed values.
type StaticCapabilities struct {
	TIFF      bool
	Extractor Tool
	Err       error
}

// TIFFDecode implements Capabilities.
func (s StaticCapabilities) TIFFDecode() bool {
	return s.TIFF
}

// Tool implements Capabilities.
func (s StaticCapabilities) Tool() (Tool, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Extractor == nil {
		return nil, exiftool.ErrToolNotFound
	}
	return s.Extractor, nil
}
