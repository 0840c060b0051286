package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// SourceFile is a previewed file in the media library.
type SourceFile struct {
	ID       int64
	Path     string
	MimeType string
	Size     int64
	ModTime  time.Time
}

// Preview is one cached preview of a source file.
type Preview struct {
	ID        int64
	FileID    int64
	Width     int
	Height    int
	Path      string
	Size      int64
	CreatedAt time.Time
}

// PreviewFolder is a source file together with all of its cached previews.
type PreviewFolder struct {
	FileID   int64
	Path     string
	MimeType string
	Previews []Preview
}
