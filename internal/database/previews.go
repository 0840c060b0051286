package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/metrics"
)

// UpsertSource records src by path and returns its id. stale is true when
// the file was known with a different size or mod time, which invalidates
// every preview cached for it.
func (d *Database) UpsertSource(ctx context.Context, src SourceFile) (id int64, stale bool, err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_source", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	var size, modTime int64
	err = tx.QueryRowContext(ctx, "SELECT id, size, mod_time FROM files WHERE path = ?", src.Path).
		Scan(&id, &size, &modTime)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			"INSERT INTO files (path, mime_type, size, mod_time) VALUES (?, ?, ?, ?)",
			src.Path, src.MimeType, src.Size, src.ModTime.Unix())
		if err != nil {
			return 0, false, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, false, err
		}
	case err != nil:
		return 0, false, err
	default:
		stale = size != src.Size || modTime != src.ModTime.Unix()
		_, err = tx.ExecContext(ctx,
			"UPDATE files SET mime_type = ?, size = ?, mod_time = ? WHERE id = ?",
			src.MimeType, src.Size, src.ModTime.Unix(), id)
		if err != nil {
			return 0, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, stale, nil
}

// GetPreview returns the cached preview of fileID at the given bounds, or
// ErrNotFound.
func (d *Database) GetPreview(ctx context.Context, fileID int64, width, height int) (p *Preview, err error) {
	start := time.Now()
	defer func() { recordQuery("get_preview", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var createdAt int64
	p = &Preview{}
	err = d.db.QueryRowContext(ctx, `
		SELECT id, file_id, width, height, path, size, created_at
		FROM previews WHERE file_id = ? AND width = ? AND height = ?`,
		fileID, width, height,
	).Scan(&p.ID, &p.FileID, &p.Width, &p.Height, &p.Path, &p.Size, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return p, nil
}

// SavePreview inserts p, replacing any preview of the same file and bounds,
// and sets p.ID.
func (d *Database) SavePreview(ctx context.Context, p *Preview) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_preview", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	err = d.db.QueryRowContext(ctx, `
		INSERT INTO previews (file_id, width, height, path, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, width, height) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			created_at = excluded.created_at
		RETURNING id`,
		p.FileID, p.Width, p.Height, p.Path, p.Size, p.CreatedAt.Unix(),
	).Scan(&p.ID)
	return err
}

// DeletePreviews removes every preview row of fileID and returns the paths
// the rows pointed to.
func (d *Database) DeletePreviews(ctx context.Context, fileID int64) (paths []string, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_preview", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "DELETE FROM previews WHERE file_id = ? RETURNING path", fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	err = rows.Err()
	return paths, err
}

// DeletePreview removes one preview row inside a transaction that commits
// only if remove succeeds, so the row and the file it describes go
// together.
func (d *Database) DeletePreview(ctx context.Context, previewID int64, remove func() error) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_preview", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM previews WHERE id = ?", previewID)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = ErrNotFound
		}
	}
	if err == nil && remove != nil {
		err = remove()
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

// DeleteSource removes the source file row and, through the foreign key,
// any previews still recorded for it.
func (d *Database) DeleteSource(ctx context.Context, fileID int64) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_folder", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", fileID)
	return err
}

// ListPreviewFolders returns up to limit source files whose mime type is one
// of mimeTypes and whose id is greater than afterID, ordered by id, each with
// its previews. Pass the last FileID back as afterID to get the next batch.
func (d *Database) ListPreviewFolders(ctx context.Context, mimeTypes []string, afterID int64, limit int) (folders []PreviewFolder, err error) {
	start := time.Now()
	defer func() { recordQuery("list_preview_folders", start, err) }()

	if len(mimeTypes) == 0 || limit <= 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(mimeTypes)), ",")
	args := make([]any, 0, len(mimeTypes)+2)
	for _, m := range mimeTypes {
		args = append(args, m)
	}
	args = append(args, afterID, limit)

	query := `
		SELECT id, path, mime_type FROM files
		WHERE mime_type IN (` + placeholders + `) AND id > ?
		ORDER BY id LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var f PreviewFolder
		if err = rows.Scan(&f.FileID, &f.Path, &f.MimeType); err != nil {
			break
		}
		folders = append(folders, f)
	}
	if err == nil {
		err = rows.Err()
	}
	if closeErr := rows.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	for i := range folders {
		if folders[i].Previews, err = d.previewsFor(ctx, folders[i].FileID); err != nil {
			return nil, err
		}
	}
	return folders, nil
}

func (d *Database) previewsFor(ctx context.Context, fileID int64) ([]Preview, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, file_id, width, height, path, size, created_at
		FROM previews WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var previews []Preview
	for rows.Next() {
		var p Preview
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.FileID, &p.Width, &p.Height, &p.Path, &p.Size, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		previews = append(previews, p)
	}
	return previews, rows.Err()
}

// CacheStats implements metrics.StatsProvider.
func (d *Database) CacheStats() (stats metrics.CacheStats, err error) {
	start := time.Now()
	defer func() { recordQuery("cache_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT file_id), COUNT(*), COALESCE(SUM(size), 0) FROM previews`,
	).Scan(&stats.SourceFiles, &stats.Previews, &stats.TotalBytes)
	return stats, err
}
