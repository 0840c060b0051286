package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"camera-raw-previews/internal/cache"
	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/mediatypes"
)

// =============================================================================
// Unit Tests
// =============================================================================

func TestParseArgs(t *testing.T) {
	t.Setenv("DATABASE_DIR", "")
	t.Setenv("CACHE_DIR", "/var/cache/previews")

	tests := []struct {
		name      string
		args      []string
		wantMimes []string
		wantForce bool
		wantYes   bool
		wantErr   bool
	}{
		{"defaults", nil, mediatypes.DefaultPurgeMimeTypes, false, false, false},
		{"force and yes", []string{"--force", "--yes"}, mediatypes.DefaultPurgeMimeTypes, true, true, false},
		{"repeated mime", []string{"--mime", "image/x-dcraw", "-mime=image/tiff"}, []string{"image/x-dcraw", "image/tiff"}, false, false, false},
		{"empty mime", []string{"--mime", " "}, nil, false, false, true},
		{"positional argument", []string{"now"}, nil, false, false, true},
		{"unknown flag", []string{"--all"}, nil, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			opts, err := parseArgs(tt.args, &stderr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(opts.mimeTypes, tt.wantMimes) {
				t.Errorf("mimeTypes = %v, want %v", opts.mimeTypes, tt.wantMimes)
			}
			if opts.force != tt.wantForce || opts.yes != tt.wantYes {
				t.Errorf("force = %v, yes = %v", opts.force, opts.yes)
			}
			if opts.databaseDir != defaultDatabaseDir {
				t.Errorf("databaseDir = %s", opts.databaseDir)
			}
			if opts.cacheDir != "/var/cache/previews" {
				t.Errorf("cacheDir = %s", opts.cacheDir)
			}
		})
	}
}

func TestParseArgsDefaultsAreCopied(t *testing.T) {
	opts, err := parseArgs(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	opts.mimeTypes[0] = "changed"
	if mediatypes.DefaultPurgeMimeTypes[0] == "changed" {
		t.Error("parseArgs shares the default mime type slice")
	}
}

func TestParseArgsHelp(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("parseArgs(-h) error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr.String(), "DATABASE_DIR") {
		t.Errorf("usage lacks environment section: %q", stderr.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := console{in: strings.NewReader(tt.input), out: &out}
		if got := confirm(c, []string{"image/x-dcraw"}); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "image/x-dcraw") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

type fixture struct {
	opts    options
	rawPath string
	jpgPath string
}

// setupCache creates a preview database with one RAW and one JPEG source,
// each with a cached preview.
func setupCache(t *testing.T) fixture {
	t.Helper()

	f := fixture{opts: options{
		mimeTypes:   mediatypes.DefaultPurgeMimeTypes,
		databaseDir: t.TempDir(),
		cacheDir:    t.TempDir(),
	}}

	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(f.opts.databaseDir, databaseFile))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	}()

	store := cache.New(db, f.opts.cacheDir)
	for _, src := range []database.SourceFile{
		{Path: "/media/a.nef", MimeType: mediatypes.MimeRaw, Size: 10, ModTime: time.Unix(1, 0)},
		{Path: "/media/b.jpg", MimeType: "image/jpeg", Size: 10, ModTime: time.Unix(1, 0)},
	} {
		_, entry, _, err := store.Lookup(ctx, src, 256, 256)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Save(ctx, entry, []byte("preview")); err != nil {
			t.Fatal(err)
		}
		path := store.PreviewPath(entry.FileID, entry.Width, entry.Height)
		if src.MimeType == mediatypes.MimeRaw {
			f.rawPath = path
		} else {
			f.jpgPath = path
		}
	}
	return f
}

func TestRunDryRun(t *testing.T) {
	f := setupCache(t)

	var out, errOut bytes.Buffer
	code := run(context.Background(), f.opts, console{out: &out, errOut: &errOut})
	if code != 0 {
		t.Fatalf("run() = %d, stderr %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "DRY RUN") || !strings.Contains(out.String(), "a.nef") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "Would delete previews for 1 file(s).") {
		t.Errorf("output lacks summary: %q", out.String())
	}
	if _, err := os.Stat(f.rawPath); err != nil {
		t.Errorf("dry run removed preview: %v", err)
	}
}

func TestRunForce(t *testing.T) {
	f := setupCache(t)
	f.opts.force = true

	var out, errOut bytes.Buffer
	if code := run(context.Background(), f.opts, console{out: &out, errOut: &errOut}); code != 0 {
		t.Fatalf("run() = %d, stderr %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Deleted previews for 1 file(s).") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(f.rawPath); !os.IsNotExist(err) {
		t.Errorf("RAW preview still present: %v", err)
	}
	if _, err := os.Stat(f.jpgPath); err != nil {
		t.Errorf("JPEG preview removed: %v", err)
	}

	out.Reset()
	if code := run(context.Background(), f.opts, console{out: &out, errOut: &errOut}); code != 0 {
		t.Fatalf("second run() = %d", code)
	}
	if !strings.Contains(out.String(), "Nothing to delete.") {
		t.Errorf("second run output = %q", out.String())
	}
}

func TestRunDeclinedConfirmation(t *testing.T) {
	f := setupCache(t)
	f.opts.force = true

	var out bytes.Buffer
	c := console{in: strings.NewReader("n\n"), out: &out, errOut: &bytes.Buffer{}, interactive: true}
	if code := run(context.Background(), f.opts, c); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "Aborted.") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(f.rawPath); err != nil {
		t.Errorf("declined run removed preview: %v", err)
	}
}

func TestRunYesSkipsConfirmation(t *testing.T) {
	f := setupCache(t)
	f.opts.force, f.opts.yes = true, true

	var out bytes.Buffer
	c := console{in: strings.NewReader(""), out: &out, errOut: &bytes.Buffer{}, interactive: true}
	if code := run(context.Background(), f.opts, c); code != 0 {
		t.Fatalf("run() = %d", code)
	}
	if strings.Contains(out.String(), "[y/N]") {
		t.Errorf("prompted despite --yes: %q", out.String())
	}
}

func TestRunMissingDatabase(t *testing.T) {
	opts := options{
		mimeTypes:   mediatypes.DefaultPurgeMimeTypes,
		databaseDir: filepath.Join(t.TempDir(), "missing"),
		cacheDir:    t.TempDir(),
	}

	var errOut bytes.Buffer
	if code := run(context.Background(), opts, console{out: &bytes.Buffer{}, errOut: &errOut}); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "DATABASE_DIR") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRunCanceled(t *testing.T) {
	f := setupCache(t)
	f.opts.force = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errOut bytes.Buffer
	code := run(ctx, f.opts, console{out: &bytes.Buffer{}, errOut: &errOut})
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if _, err := os.Stat(f.rawPath); err != nil {
		t.Errorf("canceled run removed preview: %v", err)
	}
}
