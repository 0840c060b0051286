package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"camera-raw-previews/internal/exiftool"
	"camera-raw-previews/internal/media"

	"golang.org/x/image/tiff"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(width, height), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	return buf.Bytes()
}

func writeSource(t *testing.T, dir, name string, data []byte) *LocalFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	f, err := OpenLocalFile(context.Background(), path, fastRetry())
	if err != nil {
		t.Fatalf("OpenLocalFile() error = %v", err)
	}
	return f
}

// fakeTool answers probes with a fixed result and extracts with a callback.
type fakeTool struct {
	mu           sync.Mutex
	probe        *exiftool.ProbeResult
	probeErr     error
	extract      func(ctx context.Context, src, tag, ext string, tracker exiftool.Tracker) (string, error)
	probeCalls   int
	extractCalls int
}

func (f *fakeTool) Probe(_ context.Context, _ string) (*exiftool.ProbeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return f.probe, f.probeErr
}

func (f *fakeTool) Extract(ctx context.Context, src, tag, ext string, tracker exiftool.Tracker) (string, error) {
	f.mu.Lock()
	f.extractCalls++
	fn := f.extract
	f.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("unexpected extraction of %s", tag)
	}
	return fn(ctx, src, tag, ext, tracker)
}

// extractTo writes data to a registered artifact in dir.
func extractTo(dir string, data []byte) func(context.Context, string, string, string, exiftool.Tracker) (string, error) {
	return func(_ context.Context, _, tag, ext string, tracker exiftool.Tracker) (string, error) {
		path := filepath.Join(dir, tag+"."+ext)
		tracker.Register(path)
		return path, os.WriteFile(path, data, 0o600)
	}
}

type normalizerFunc func(ctx context.Context, path, ext string, maxWidth, maxHeight int) (*media.Result, error)

func (f normalizerFunc) Normalize(ctx context.Context, path, ext string, maxWidth, maxHeight int) (*media.Result, error) {
	return f(ctx, path, ext, maxWidth, maxHeight)
}

type recordingObserver struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
	removed  []int
}

func (r *recordingObserver) ObserveStage(state string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, state)
}

func (r *recordingObserver) ObserveOutcome(outcome, cause string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome+":"+cause)
}

func (r *recordingObserver) ObserveTempFilesRemoved(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, count)
}

func (r *recordingObserver) lastOutcome() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temporary files left behind: %v", names)
	}
}

// scriptedRunner stands in for the exiftool binary.
func scriptedRunner(probeJSON string, payload []byte) exiftool.RunnerFunc {
	return func(_ context.Context, args []string, stdout io.Writer) error {
		switch {
		case args[0] == "-json":
			_, err := io.WriteString(stdout, probeJSON)
			return err
		case len(args) > 1 && args[1] == "-b":
			_, err := stdout.Write(payload)
			return err
		default:
			return nil
		}
	}
}

func TestGetThumbnailEmbeddedJPEG(t *testing.T) {
	srcDir, tmpDir := t.TempDir(), t.TempDir()
	source := writeSource(t, srcDir, "IMG_0001.CR2", bytes.Repeat([]byte{0x42}, 4096))

	payload := jpegBytes(t, 160, 120)
	tool := exiftool.New(
		scriptedRunner(`[{"SourceFile": "IMG_0001.CR2", "PreviewImage": "(Binary data 5000 bytes)", "FileType": "CR2"}]`, payload),
		exiftool.Options{TempDir: tmpDir},
	)
	obs := &recordingObserver{}
	p := NewPipeline(StaticCapabilities{Extractor: tool}, media.NewNormalizer(), WithObserver(obs))

	bmp, ok := p.GetThumbnail(context.Background(), source, 100, 100)
	if !ok {
		t.Fatalf("GetThumbnail() failed: %v", obs.outcomes)
	}
	if bmp.Width != 100 || bmp.Height != 75 {
		t.Errorf("preview = %dx%d, want 100x75", bmp.Width, bmp.Height)
	}
	if bmp.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %s", bmp.MimeType)
	}
	assertEmptyDir(t, tmpDir)

	wantStages := []string{"local_file", "probed", "selected", "extracted", "normalized", "done"}
	if strings.Join(obs.stages, ",") != strings.Join(wantStages, ",") {
		t.Errorf("stages = %v, want %v", obs.stages, wantStages)
	}
	if obs.lastOutcome() != "success:none" {
		t.Errorf("outcome = %s", obs.lastOutcome())
	}
	if len(obs.removed) != 1 || obs.removed[0] != 1 {
		t.Errorf("removed = %v, want [1]", obs.removed)
	}
}

func TestGetThumbnailTIFFSourceFile(t *testing.T) {
	srcDir := t.TempDir()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(200, 100), nil); err != nil {
		t.Fatal(err)
	}
	source := writeSource(t, srcDir, "scan.tiff", buf.Bytes())

	tool := &fakeTool{probe: exiftool.NewProbeResult("TIFF")}
	var normalizedPath, normalizedExt string
	native := media.NewNormalizer()
	n := normalizerFunc(func(ctx context.Context, path, ext string, w, h int) (*media.Result, error) {
		normalizedPath, normalizedExt = path, ext
		return native.Normalize(ctx, path, ext, w, h)
	})

	p := NewPipeline(StaticCapabilities{TIFF: true, Extractor: tool}, n)
	bmp, ok := p.GetThumbnail(context.Background(), source, 100, 100)
	if !ok {
		t.Fatal("GetThumbnail() failed")
	}
	if bmp.Width != 100 || bmp.Height != 50 {
		t.Errorf("preview = %dx%d, want 100x50", bmp.Width, bmp.Height)
	}
	if tool.extractCalls != 0 {
		t.Errorf("extract called %d times for SourceFile", tool.extractCalls)
	}
	if normalizedPath != source.Path() || normalizedExt != ExtTIFF {
		t.Errorf("normalized %s (%s), want source %s (tiff)", normalizedPath, normalizedExt, source.Path())
	}
	if _, err := os.Stat(source.Path()); err != nil {
		t.Errorf("source file must survive the request: %v", err)
	}
}

func TestGetThumbnailFailures(t *testing.T) {
	noNormalize := normalizerFunc(func(context.Context, string, string, int, int) (*media.Result, error) {
		return nil, fmt.Errorf("normalizer should not run")
	})

	tests := []struct {
		name      string
		caps      func(tmpDir string) Capabilities
		norm      Normalizer
		wantCause Cause
	}{
		{
			name: "TIFF preview without TIFF support",
			caps: func(string) Capabilities {
				return StaticCapabilities{Extractor: &fakeTool{probe: exiftool.NewProbeResult("XYZ", "PreviewTIFF")}}
			},
			norm:      noNormalize,
			wantCause: CauseMissingCapability,
		},
		{
			name: "No preview tags",
			caps: func(string) Capabilities {
				return StaticCapabilities{TIFF: true, Extractor: &fakeTool{probe: exiftool.NewProbeResult(exiftool.UnknownFileType)}}
			},
			norm:      noNormalize,
			wantCause: CauseNoPreviewAvailable,
		},
		{
			name: "Tool not found",
			caps: func(string) Capabilities {
				return StaticCapabilities{Err: exiftool.ErrToolNotFound}
			},
			norm:      noNormalize,
			wantCause: CauseProbeFailure,
		},
		{
			name: "Tool binary missing at probe time",
			caps: func(tmpDir string) Capabilities {
				runner := exiftool.NewExecRunner([]string{filepath.Join(tmpDir, "no-such-exiftool")})
				return StaticCapabilities{Extractor: exiftool.New(runner, exiftool.Options{TempDir: tmpDir})}
			},
			norm:      noNormalize,
			wantCause: CauseProbeFailure,
		},
		{
			name: "Unparseable probe output",
			caps: func(tmpDir string) Capabilities {
				return StaticCapabilities{Extractor: exiftool.New(scriptedRunner("not json", nil), exiftool.Options{TempDir: tmpDir})}
			},
			norm:      noNormalize,
			wantCause: CauseProbeFailure,
		},
		{
			name: "Short artifact",
			caps: func(tmpDir string) Capabilities {
				runner := scriptedRunner(`[{"JpgFromRaw": "(Binary data)", "FileType": "NEF"}]`, make([]byte, 50))
				return StaticCapabilities{Extractor: exiftool.New(runner, exiftool.Options{TempDir: tmpDir})}
			},
			norm:      noNormalize,
			wantCause: CauseExtractionFailure,
		},
		{
			name: "Corrupt artifact",
			caps: func(tmpDir string) Capabilities {
				runner := scriptedRunner(`[{"PreviewImage": "(Binary data)", "FileType": "ARW"}]`, bytes.Repeat([]byte("garbage "), 64))
				return StaticCapabilities{Extractor: exiftool.New(runner, exiftool.Options{TempDir: tmpDir})}
			},
			norm:      media.NewNormalizer(),
			wantCause: CauseDecodeFailure,
		},
		{
			name: "Encode failure",
			caps: func(tmpDir string) Capabilities {
				return StaticCapabilities{Extractor: &fakeTool{
					probe:   exiftool.NewProbeResult("CR2", "PreviewImage"),
					extract: extractTo(tmpDir, bytes.Repeat([]byte{1}, 200)),
				}}
			},
			norm: normalizerFunc(func(context.Context, string, string, int, int) (*media.Result, error) {
				return nil, fmt.Errorf("%w: disk full", media.ErrEncode)
			}),
			wantCause: CauseEncodeFailure,
		},
		{
			name: "Result is not a JPEG",
			caps: func(tmpDir string) Capabilities {
				return StaticCapabilities{Extractor: &fakeTool{
					probe:   exiftool.NewProbeResult("CR2", "PreviewImage"),
					extract: extractTo(tmpDir, bytes.Repeat([]byte{1}, 200)),
				}}
			},
			norm: normalizerFunc(func(context.Context, string, string, int, int) (*media.Result, error) {
				return &media.Result{Data: []byte("definitely not a jpeg"), Width: 1, Height: 1}, nil
			}),
			wantCause: CauseInvalidResult,
		},
		{
			name: "Normalizer panics",
			caps: func(tmpDir string) Capabilities {
				return StaticCapabilities{Extractor: &fakeTool{
					probe:   exiftool.NewProbeResult("CR2", "PreviewImage"),
					extract: extractTo(tmpDir, bytes.Repeat([]byte{1}, 200)),
				}}
			},
			norm: normalizerFunc(func(context.Context, string, string, int, int) (*media.Result, error) {
				panic("decoder bug")
			}),
			wantCause: CauseDecodeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcDir, tmpDir := t.TempDir(), t.TempDir()
			source := writeSource(t, srcDir, "IMG_0001.CR2", bytes.Repeat([]byte{0x42}, 1024))

			obs := &recordingObserver{}
			p := NewPipeline(tt.caps(tmpDir), tt.norm, WithObserver(obs))

			bmp, ok := p.GetThumbnail(context.Background(), source, 100, 100)
			if ok || bmp != nil {
				t.Fatalf("GetThumbnail() = %v, %v, want nil, false", bmp, ok)
			}
			want := "failure:" + tt.wantCause.String()
			if got := obs.lastOutcome(); got != want {
				t.Errorf("outcome = %s, want %s", got, want)
			}
			for _, e := range mustReadDir(t, tmpDir) {
				if e.Name() != "no-such-exiftool" {
					t.Errorf("temporary file left behind: %s", e.Name())
				}
			}
			if _, err := os.Stat(source.Path()); err != nil {
				t.Errorf("source file removed: %v", err)
			}
		})
	}
}

func mustReadDir(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	return entries
}

func TestGetThumbnailCancellation(t *testing.T) {
	srcDir, tmpDir := t.TempDir(), t.TempDir()
	source := writeSource(t, srcDir, "IMG_0001.NEF", bytes.Repeat([]byte{0x42}, 1024))

	ctx, cancel := context.WithCancel(context.Background())
	tool := &fakeTool{
		probe: exiftool.NewProbeResult("NEF", "JpgFromRaw"),
		extract: func(ctx context.Context, src, tag, ext string, tracker exiftool.Tracker) (string, error) {
			path := filepath.Join(tmpDir, "partial.jpg")
			tracker.Register(path)
			if err := os.WriteFile(path, []byte("partial"), 0o600); err != nil {
				return "", err
			}
			cancel()
			return "", ctx.Err()
		},
	}
	obs := &recordingObserver{}
	p := NewPipeline(StaticCapabilities{Extractor: tool}, media.NewNormalizer(), WithObserver(obs))

	if _, ok := p.GetThumbnail(ctx, source, 100, 100); ok {
		t.Fatal("GetThumbnail() succeeded after cancellation")
	}
	if got := obs.lastOutcome(); got != "failure:extraction_failure" {
		t.Errorf("outcome = %s", got)
	}
	assertEmptyDir(t, tmpDir)
}

func TestGetThumbnailAlreadyCanceled(t *testing.T) {
	source := writeSource(t, t.TempDir(), "a.cr2", []byte("raw"))
	tool := &fakeTool{probe: exiftool.NewProbeResult("CR2", "PreviewImage")}
	obs := &recordingObserver{}
	p := NewPipeline(StaticCapabilities{Extractor: tool}, media.NewNormalizer(), WithObserver(obs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := p.GetThumbnail(ctx, source, 100, 100); ok {
		t.Fatal("GetThumbnail() succeeded with canceled context")
	}
	if tool.probeCalls != 0 {
		t.Errorf("probe ran %d times", tool.probeCalls)
	}
	if got := obs.lastOutcome(); got != "failure:source_unavailable" {
		t.Errorf("outcome = %s", got)
	}
}

func TestGetThumbnailInvalidInput(t *testing.T) {
	tool := &fakeTool{probe: exiftool.NewProbeResult("CR2", "PreviewImage")}
	obs := &recordingObserver{}
	p := NewPipeline(StaticCapabilities{Extractor: tool}, media.NewNormalizer(), WithObserver(obs))
	source := writeSource(t, t.TempDir(), "a.cr2", []byte("raw"))

	if _, ok := p.GetThumbnail(context.Background(), source, 0, 100); ok {
		t.Error("zero width should fail")
	}
	if got := obs.lastOutcome(); got != "failure:invalid_result" {
		t.Errorf("outcome = %s", got)
	}
	if _, ok := p.GetThumbnail(context.Background(), nil, 100, 100); ok {
		t.Error("nil file should fail")
	}
	if got := obs.lastOutcome(); got != "failure:source_unavailable" {
		t.Errorf("outcome = %s", got)
	}
	if tool.probeCalls != 0 {
		t.Errorf("probe ran %d times", tool.probeCalls)
	}
}

func TestGetThumbnailStreamedSource(t *testing.T) {
	tmpDir := t.TempDir()
	payload := jpegBytes(t, 64, 48)
	tool := &fakeTool{
		probe:   exiftool.NewProbeResult("DNG", "PreviewImage"),
		extract: extractTo(tmpDir, payload),
	}
	p := NewPipeline(StaticCapabilities{Extractor: tool}, media.NewNormalizer())

	source := NewStreamFile("remote.dng", 2048, func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(bytes.Repeat([]byte{7}, 2048))), nil
	}, tmpDir)

	bmp, ok := p.GetThumbnail(context.Background(), source, 256, 256)
	if !ok {
		t.Fatal("GetThumbnail() failed")
	}
	if bmp.Width != 64 || bmp.Height != 48 {
		t.Errorf("preview = %dx%d, want 64x48 (no upscaling)", bmp.Width, bmp.Height)
	}
	assertEmptyDir(t, tmpDir)
}

type fileInfo struct {
	name string
	size int64
}

func (f fileInfo) Name() string { return f.name }
func (f fileInfo) Size() int64  { return f.size }

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		name string
		info FileInfo
		tiff bool
		want bool
	}{
		{"raw file", fileInfo{"IMG_0001.CR2", 1024}, false, true},
		{"empty raw file", fileInfo{"IMG_0001.CR2", 0}, true, false},
		{"tif without support", fileInfo{"scan.tif", 1024}, false, false},
		{"TIFF without support", fileInfo{"SCAN.TIFF", 1024}, false, false},
		{"tiff with support", fileInfo{"scan.tiff", 1024}, true, true},
		{"empty tiff with support", fileInfo{"scan.tiff", 0}, true, false},
		{"indesign", fileInfo{"layout.indd", 10}, false, true},
		{"nil info", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &fakeTool{}
			p := NewPipeline(StaticCapabilities{TIFF: tt.tiff, Extractor: tool}, media.NewNormalizer())
			if got := p.IsAvailable(tt.info); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
			if tool.probeCalls != 0 || tool.extractCalls != 0 {
				t.Error("IsAvailable must not run the tool")
			}
		})
	}
}

func TestIsAvailableWithoutTool(t *testing.T) {
	p := NewPipeline(StaticCapabilities{Err: exiftool.ErrToolNotFound}, media.NewNormalizer())
	source := writeSource(t, t.TempDir(), "IMG_0001.CR2", []byte("raw"))

	if !p.IsAvailable(source) {
		t.Error("IsAvailable() = false, want true when only the tool is missing")
	}
	if _, ok := p.GetThumbnail(context.Background(), source, 100, 100); ok {
		t.Error("GetThumbnail() = ok without a tool")
	}
}

func TestMimePattern(t *testing.T) {
	p := NewPipeline(StaticCapabilities{}, media.NewNormalizer())
	for mime, want := range map[string]bool{
		"image/x-dcraw":                  true,
		"image/x-indesign":               true,
		"image/x-dcraw; charset=binary":  true,
		"image/jpeg":                     false,
		"image/x-dcraw-extra":            false,
		"application/x-image/x-indesign": false,
	} {
		if got := p.MimePattern().MatchString(mime); got != want {
			t.Errorf("MimePattern(%q) = %v, want %v", mime, got, want)
		}
	}
}
