package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/metrics"

	"github.com/google/uuid"
)

// writeFile is replaced in tests to simulate a full disk.
var writeFile = os.WriteFile

// Store is the on-disk preview cache.
type Store struct {
	db   *database.Database
	root string
}

// New creates a Store writing below cacheDir/preview.
func New(db *database.Database, cacheDir string) *Store {
	return &Store{db: db, root: filepath.Join(cacheDir, "preview")}
}

// Root returns the directory holding all preview folders.
func (s *Store) Root() string {
	return s.root
}

// FolderPath returns the folder holding the previews of fileID.
func (s *Store) FolderPath(fileID int64) string {
	id := strconv.FormatInt(fileID, 10)
	return filepath.Join(s.root, strconv.FormatInt(fileID%10, 10), id)
}

// PreviewPath returns the path of the preview of fileID at the given bounds.
func (s *Store) PreviewPath(fileID int64, width, height int) string {
	return filepath.Join(s.FolderPath(fileID), fmt.Sprintf("%d-%d.jpg", width, height))
}

// Entry identifies a cache slot: one source file at one size.
type Entry struct {
	FileID int64
	Width  int
	Height int
}

// Lookup returns the cached preview of src at width x height. The returned
// Entry is valid for Save even on a miss. Cached previews of a source whose
// size or mod time changed are discarded first.
func (s *Store) Lookup(ctx context.Context, src database.SourceFile, width, height int) ([]byte, Entry, bool, error) {
	fileID, stale, err := s.db.UpsertSource(ctx, src)
	if err != nil {
		return nil, Entry{}, false, fmt.Errorf("failed to record source %s: %w", src.Path, err)
	}
	entry := Entry{FileID: fileID, Width: width, Height: height}

	if stale {
		metrics.PreviewCacheStale.Inc()
		s.discard(ctx, fileID)
		metrics.PreviewCacheMisses.Inc()
		return nil, entry, false, nil
	}

	p, err := s.db.GetPreview(ctx, fileID, width, height)
	if errors.Is(err, database.ErrNotFound) {
		metrics.PreviewCacheMisses.Inc()
		return nil, entry, false, nil
	}
	if err != nil {
		return nil, entry, false, err
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		// The row outlived its file; regenerate.
		logging.Warn("Cached preview %s unreadable: %v", p.Path, err)
		metrics.PreviewCacheMisses.Inc()
		return nil, entry, false, nil
	}

	metrics.PreviewCacheHits.Inc()
	return data, entry, true, nil
}

// Save writes data as the preview for entry and records it.
func (s *Store) Save(ctx context.Context, entry Entry, data []byte) error {
	path := s.PreviewPath(entry.FileID, entry.Width, entry.Height)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create preview folder: %w", err)
	}

	// Write to a temporary name first so readers never see a partial file.
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := writeFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write preview: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to store preview: %w", err)
	}

	return s.db.SavePreview(ctx, &database.Preview{
		FileID: entry.FileID,
		Width:  entry.Width,
		Height: entry.Height,
		Path:   path,
		Size:   int64(len(data)),
	})
}

// discard removes every preview of fileID, rows first.
func (s *Store) discard(ctx context.Context, fileID int64) {
	paths, err := s.db.DeletePreviews(ctx, fileID)
	if err != nil {
		logging.Warn("Failed to drop stale previews of file %d: %v", fileID, err)
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to remove stale preview %s: %v", p, err)
		}
	}
	logging.Debug("Discarded %d stale previews of file %d", len(paths), fileID)
}
