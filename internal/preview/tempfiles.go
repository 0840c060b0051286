package preview

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"camera-raw-previews/internal/logging"
)

// TempFiles is the set of temporary files owned by one request. The zero
// value is ready to use and safe for concurrent use.
type TempFiles struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]struct{}
}

// Register adds path to the set. Registering a path twice has no effect.
func (t *TempFiles) Register(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen == nil {
		t.seen = make(map[string]struct{})
	}
	if _, ok := t.seen[path]; ok {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

// Drain removes every registered file and empties the set. Files that are
// already gone are logged and skipped. It returns the number of files
// removed; a second call returns 0.
func (t *TempFiles) Drain() int {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.seen = nil
	t.mu.Unlock()

	removed := 0
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
			logging.Debug("Temporary file already gone: %s", path)
		default:
			logging.Warn("Failed to remove temporary file %s: %v", path, err)
		}
	}
	return removed
}

// Len returns the number of registered files.
func (t *TempFiles) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paths)
}

// Paths returns a copy of the registered paths in registration order.
func (t *TempFiles) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths...)
}
