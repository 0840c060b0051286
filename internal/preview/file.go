package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"camera-raw-previews/internal/exiftool"
	"camera-raw-previews/internal/filesystem"
	"camera-raw-previews/internal/logging"

	"github.com/google/uuid"
)

// FileInfo is the host's description of a file, enough for the
// availability gate. os.FileInfo satisfies it.
type FileInfo interface {
	Name() string
	Size() int64
}

// File is a host file handle.
type File interface {
	FileInfo
	// LocalPath returns a readable path on local disk. Any temporary copy
	// it makes is registered with tracker before it is written.
	LocalPath(ctx context.Context, tracker exiftool.Tracker) (string, error)
}

// LocalFile is a file on a locally mounted volume. The pipeline reads it in
// place and never removes it.
type LocalFile struct {
	path  string
	info  os.FileInfo
	retry filesystem.RetryConfig
}

// OpenLocalFile stats path, retrying NFS stale handle errors.
func OpenLocalFile(ctx context.Context, path string, retry filesystem.RetryConfig) (*LocalFile, error) {
	info, err := filesystem.Stat(ctx, path, retry)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{path: path, info: info, retry: retry}, nil
}

// Name implements FileInfo.
func (f *LocalFile) Name() string { return f.info.Name() }

// Size implements FileInfo.
func (f *LocalFile) Size() int64 { return f.info.Size() }

// ModTime is the modification time seen when the file was opened.
func (f *LocalFile) ModTime() time.Time { return f.info.ModTime() }

// Path returns the path the file was opened with.
func (f *LocalFile) Path() string { return f.path }

// LocalPath implements File. The file is checked again since it may have
// been removed after it was opened.
func (f *LocalFile) LocalPath(ctx context.Context, _ exiftool.Tracker) (string, error) {
	if _, err := filesystem.Stat(ctx, f.path, f.retry); err != nil {
		return "", err
	}
	return f.path, nil
}

// StreamFile is a file whose content is only available as a stream, for
// example on remote or encrypted storage. LocalPath copies it to a
// temporary file.
type StreamFile struct {
	name    string
	size    int64
	open    func(ctx context.Context) (io.ReadCloser, error)
	tempDir string
}

// NewStreamFile creates a StreamFile. The copy is written to tempDir, or to
// os.TempDir() when tempDir is empty.
func NewStreamFile(name string, size int64, open func(ctx context.Context) (io.ReadCloser, error), tempDir string) *StreamFile {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &StreamFile{name: name, size: size, open: open, tempDir: tempDir}
}

// Name implements FileInfo.
func (f *StreamFile) Name() string { return f.name }

// Size implements FileInfo.
func (f *StreamFile) Size() int64 { return f.size }

// LocalPath implements File. The copy keeps the original extension so the
// metadata tool can use it as a format hint.
func (f *StreamFile) LocalPath(ctx context.Context, tracker exiftool.Tracker) (string, error) {
	if f.open == nil {
		return "", errors.New("stream file has no content")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := f.open(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", f.name, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logging.Warn("failed to close stream for %s: %v", f.name, err)
		}
	}()

	path := filepath.Join(f.tempDir, "source-"+uuid.NewString()+filepath.Ext(f.name))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create local copy of %s: %w", f.name, err)
	}
	if tracker != nil {
		tracker.Register(path)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return "", fmt.Errorf("failed to copy %s: %w", f.name, copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to write local copy of %s: %w", f.name, closeErr)
	}
	return path, nil
}
