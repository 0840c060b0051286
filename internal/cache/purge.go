package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/logging"
)

// DefaultPurgeBatchSize is the number of preview folders read per query.
const DefaultPurgeBatchSize = 100

// PurgeOptions configures Purge.
type PurgeOptions struct {
	MimeTypes []string
	// Force deletes; otherwise Purge only reports what it would delete.
	Force     bool
	BatchSize int
	// Out receives one line per source file. Defaults to io.Discard.
	Out io.Writer
}

// Purge deletes the cached previews of every source file whose mime type is
// one of opts.MimeTypes and returns the number of source files handled. Each
// preview file is removed in the same transaction as its row; the emptied
// folder and the source row go last. A folder that cannot be fully removed
// is reported and skipped.
func (s *Store) Purge(ctx context.Context, opts PurgeOptions) (int, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultPurgeBatchSize
	}

	count := 0
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		folders, err := s.db.ListPreviewFolders(ctx, opts.MimeTypes, afterID, batch)
		if err != nil {
			return count, fmt.Errorf("failed to list preview folders: %w", err)
		}
		if len(folders) == 0 {
			return count, nil
		}
		afterID = folders[len(folders)-1].FileID

		for _, folder := range folders {
			if !opts.Force {
				count++
				fmt.Fprintf(out, "DRY RUN: would delete %d previews for %s\n", len(folder.Previews), folder.Path)
				continue
			}
			if err := s.purgeFolder(ctx, folder); err != nil {
				fmt.Fprintf(out, "ERROR: %s: %v\n", folder.Path, err)
				logging.Warn("Failed to purge previews of %s: %v", folder.Path, err)
				continue
			}
			count++
			fmt.Fprintf(out, "Deleted %d previews for %s\n", len(folder.Previews), folder.Path)
		}
	}
}

func (s *Store) purgeFolder(ctx context.Context, folder database.PreviewFolder) error {
	for _, p := range folder.Previews {
		err := s.db.DeletePreview(ctx, p.ID, func() error {
			if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("preview %s: %w", p.Path, err)
		}
	}

	dir := s.FolderPath(folder.FileID)
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("folder %s: %w", dir, err)
	}
	return s.db.DeleteSource(ctx, folder.FileID)
}
