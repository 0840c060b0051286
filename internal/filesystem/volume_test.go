package filesystem

import (
	"path/filepath"
	"testing"
)

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"media":    "/media",
		"cache":    "/cache",
		"database": "/database",
		"previews": "/cache/preview",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/media/2024/IMG_0001.CR2", "media"},
		{"/media", "media"},
		{"/media/", "media"},
		{"/mediabackup/file.nef", UnknownVolume},
		{"/cache/transient/x", "cache"},
		{"/cache/preview/1/11/100-100.jpg", "previews"},
		{"/database/previews.db", "database"},
		{"/tmp/other", UnknownVolume},
		{"/", UnknownVolume},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_RelativePaths(t *testing.T) {
	dir := t.TempDir()
	vr := NewVolumeResolver(map[string]string{"media": dir})

	if got := vr.Resolve(filepath.Join(dir, "a", "b.arw")); got != "media" {
		t.Errorf("Resolve() = %q, want media", got)
	}
}

func TestVolumeResolver_Nil(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/media/x"); got != UnknownVolume {
		t.Errorf("nil Resolve() = %q, want %q", got, UnknownVolume)
	}
}

func TestRetryConfigUsesDefaultResolver(t *testing.T) {
	original := defaultResolver
	t.Cleanup(func() { defaultResolver = original })

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"media": "/media"}))
	cfg := DefaultRetryConfig()
	if got := cfg.resolveVolume("/media/x.dng"); got != "media" {
		t.Errorf("resolveVolume() = %q, want media", got)
	}

	cfg.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/media"})
	if got := cfg.resolveVolume("/media/x.dng"); got != "override" {
		t.Errorf("resolveVolume() = %q, want override", got)
	}
}
