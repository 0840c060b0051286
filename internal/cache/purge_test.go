package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"camera-raw-previews/internal/database"
)

func seed(t *testing.T, s *Store, path, mime string, sizes ...int) int64 {
	t.Helper()
	ctx := context.Background()
	src := database.SourceFile{Path: path, MimeType: mime, Size: 1, ModTime: time.Unix(1, 0)}
	var id int64
	for _, size := range sizes {
		_, entry, _, err := s.Lookup(ctx, src, size, size)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Save(ctx, entry, []byte("preview")); err != nil {
			t.Fatal(err)
		}
		id = entry.FileID
	}
	return id
}

func TestPurgeDryRun(t *testing.T) {
	s, db := newTestStore(t)
	rawID := seed(t, s, "a.cr2", "image/x-dcraw", 64, 128)
	seed(t, s, "b.jpg", "image/jpeg", 64)

	var out bytes.Buffer
	n, err := s.Purge(context.Background(), PurgeOptions{MimeTypes: []string{"image/x-dcraw"}, Out: &out})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Purge() = %d, want 1", n)
	}
	if !strings.Contains(out.String(), "DRY RUN") || !strings.Contains(out.String(), "a.cr2") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(s.PreviewPath(rawID, 64, 64)); err != nil {
		t.Errorf("dry run deleted a preview: %v", err)
	}
	stats, err := db.CacheStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Previews != 3 {
		t.Errorf("Previews = %d, want 3", stats.Previews)
	}
}

func TestPurgeForce(t *testing.T) {
	s, db := newTestStore(t)
	var rawIDs []int64
	for _, name := range []string{"a.cr2", "b.nef", "c.arw"} {
		rawIDs = append(rawIDs, seed(t, s, name, "image/x-dcraw", 64, 256))
	}
	inddID := seed(t, s, "d.indd", "image/x-indesign", 64)
	jpegID := seed(t, s, "e.jpg", "image/jpeg", 64)

	var out bytes.Buffer
	n, err := s.Purge(context.Background(), PurgeOptions{
		MimeTypes: []string{"image/x-dcraw", "image/x-indesign"},
		Force:     true,
		BatchSize: 2,
		Out:       &out,
	})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Purge() = %d, want 4\n%s", n, out.String())
	}

	for _, id := range append(rawIDs, inddID) {
		if _, err := os.Stat(s.FolderPath(id)); !os.IsNotExist(err) {
			t.Errorf("folder of %d still exists", id)
		}
	}
	if _, err := os.Stat(s.PreviewPath(jpegID, 64, 64)); err != nil {
		t.Errorf("unrelated preview removed: %v", err)
	}

	stats, err := db.CacheStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Previews != 1 || stats.SourceFiles != 1 {
		t.Errorf("CacheStats() = %+v, want only the jpeg preview", stats)
	}

	again, err := s.Purge(context.Background(), PurgeOptions{MimeTypes: []string{"image/x-dcraw"}, Force: true})
	if err != nil || again != 0 {
		t.Errorf("second Purge() = %d, %v; want 0", again, err)
	}
}

func TestPurgeToleratesMissingPreviewFiles(t *testing.T) {
	s, db := newTestStore(t)
	id := seed(t, s, "a.dng", "image/x-dcraw", 32)
	if err := os.Remove(s.PreviewPath(id, 32, 32)); err != nil {
		t.Fatal(err)
	}

	n, err := s.Purge(context.Background(), PurgeOptions{MimeTypes: []string{"image/x-dcraw"}, Force: true})
	if err != nil || n != 1 {
		t.Fatalf("Purge() = %d, %v", n, err)
	}
	stats, err := db.CacheStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Previews != 0 {
		t.Errorf("orphaned row survived")
	}
}

func TestPurgeSkipsFolderThatCannotBeRemoved(t *testing.T) {
	s, db := newTestStore(t)
	id := seed(t, s, "a.pef", "image/x-dcraw", 32)

	// A file the database does not know about keeps the folder non-empty.
	if err := os.WriteFile(filepath.Join(s.FolderPath(id), "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	n, err := s.Purge(context.Background(), PurgeOptions{MimeTypes: []string{"image/x-dcraw"}, Force: true, Out: &out})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Purge() = %d, want 0", n)
	}
	if !strings.Contains(out.String(), "ERROR") {
		t.Errorf("output = %q, want an error line", out.String())
	}
	stats, err := db.CacheStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Previews != 0 {
		t.Errorf("preview rows = %d, want 0 (previews are removed before the folder)", stats.Previews)
	}
}

func TestPurgeCanceled(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, "a.cr2", "image/x-dcraw", 32)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Purge(ctx, PurgeOptions{MimeTypes: []string{"image/x-dcraw"}, Force: true}); err == nil {
		t.Error("Purge() should fail on a canceled context")
	}
}
