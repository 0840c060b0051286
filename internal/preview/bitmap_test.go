package preview

import (
	"testing"
	"time"

	"camera-raw-previews/internal/filesystem"
)

func fastRetry() filesystem.RetryConfig {
	return filesystem.RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestNewBitmap(t *testing.T) {
	bmp, err := NewBitmap(jpegBytes(t, 30, 20))
	if err != nil {
		t.Fatalf("NewBitmap() error = %v", err)
	}
	if bmp.Width != 30 || bmp.Height != 20 {
		t.Errorf("size = %dx%d, want 30x20", bmp.Width, bmp.Height)
	}
	if bmp.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %s", bmp.MimeType)
	}

	for name, data := range map[string][]byte{
		"nil":       nil,
		"garbage":   []byte("garbage"),
		"truncated": jpegBytes(t, 30, 20)[:2],
	} {
		if _, err := NewBitmap(data); err == nil {
			t.Errorf("NewBitmap(%s) succeeded", name)
		}
	}
}
