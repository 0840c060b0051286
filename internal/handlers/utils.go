package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"camera-raw-previews/internal/logging"
)

var errOutsideMediaDir = errors.New("path outside media directory")

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; the response is already committed.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// isSubPath reports whether child is parent or lies below it. Both must be
// absolute and clean.
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolveMediaPath maps a request path onto the media directory and returns
// the absolute path plus the slash-separated path relative to the media
// directory.
func (h *Handlers) resolveMediaPath(requested string) (abs, rel string, err error) {
	root, err := filepath.Abs(h.mediaDir)
	if err != nil {
		return "", "", err
	}
	abs = filepath.Join(root, filepath.FromSlash(requested))
	if !isSubPath(root, abs) || abs == root {
		return "", "", errOutsideMediaDir
	}
	rel, err = filepath.Rel(root, abs)
	if err != nil {
		return "", "", err
	}
	return abs, filepath.ToSlash(rel), nil
}
