package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
)

// UnknownVolume labels paths outside every configured volume.
const UnknownVolume = "unknown"

// VolumeResolver maps file paths to volume names for metric labels using
// longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// sorted by prefix length, longest first
	mounts []volumeMount
}

type volumeMount struct {
	prefix string // absolute, with trailing separator
	name   string
}

// NewVolumeResolver creates a resolver from volume name to directory.
//
//	NewVolumeResolver(map[string]string{
//	    "media": "/media",
//	    "cache": "/cache",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, dir := range volumes {
		prefix, err := filepath.Abs(dir)
		if err != nil {
			prefix = dir
		}
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{prefix: prefix, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].prefix) == len(mounts[j].prefix) {
			return mounts[i].name < mounts[j].name
		}
		return len(mounts[i].prefix) > len(mounts[j].prefix)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for path, or UnknownVolume. A nil
// resolver resolves everything to UnknownVolume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return UnknownVolume
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return UnknownVolume
	}
	// The directory itself belongs to its volume.
	abs += string(filepath.Separator)

	for _, m := range vr.mounts {
		if strings.HasPrefix(abs, m.prefix) {
			return m.name
		}
	}
	return UnknownVolume
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver. Call it
// once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
