package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"camera-raw-previews/internal/cache"
	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/mediatypes"
	"camera-raw-previews/internal/middleware"
	"camera-raw-previews/internal/preview"

	"github.com/gorilla/mux"
)

// errNoPreview is returned through singleflight when the pipeline declines.
var errNoPreview = errors.New("no preview available")

// source is a resolved request target.
type source struct {
	file *preview.LocalFile
	rel  string
	mime string
}

// openSource resolves the {path} variable and stats the file. On failure it
// writes the response and returns nil.
func (h *Handlers) openSource(w http.ResponseWriter, r *http.Request) *source {
	requested := mux.Vars(r)["path"]
	if requested == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return nil
	}

	abs, rel, err := h.resolveMediaPath(requested)
	if err != nil {
		logging.Warn("Preview: rejected path %q: %v", requested, err)
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return nil
	}

	file, err := preview.OpenLocalFile(r.Context(), abs, h.retry)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeJSONError(w, "File not found", http.StatusNotFound)
		return nil
	case err != nil:
		// Directories land here too.
		logging.Warn("Preview: cannot open %s: %v", rel, err)
		writeJSONError(w, "Cannot read file", http.StatusBadRequest)
		return nil
	}

	return &source{file: file, rel: rel, mime: mediatypes.MimeTypeForPath(rel)}
}

// parseBounds reads width and height. Missing values default to the
// configured maximum; larger values are clamped to it.
func (h *Handlers) parseBounds(r *http.Request) (width, height int, err error) {
	width, err = h.parseBound(r, "width")
	if err != nil {
		return 0, 0, err
	}
	height, err = h.parseBound(r, "height")
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func (h *Handlers) parseBound(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return h.maxSize, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return min(v, h.maxSize), nil
}

// AvailabilityResponse answers GET /api/available/{path}.
type AvailabilityResponse struct {
	Path           string `json:"path"`
	Available      bool   `json:"available"`
	MimeType       string `json:"mimeType"`
	SourceMimeType string `json:"sourceMimeType"`
}

// GetAvailability reports whether a preview can be requested for a file
// without running the pipeline.
func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	src := h.openSource(w, r)
	if src == nil {
		return
	}

	available := mediatypes.MatchesProvider(src.mime) && h.provider.IsAvailable(src.file)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, AvailabilityResponse{
		Path:           src.rel,
		Available:      available,
		MimeType:       mediatypes.ViewerMimeType(src.mime),
		SourceMimeType: src.mime,
	})
}

// GetPreview renders the embedded preview of a RAW or InDesign file as a
// JPEG no larger than width x height.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	width, height, err := h.parseBounds(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	src := h.openSource(w, r)
	if src == nil {
		return
	}

	if !mediatypes.MatchesProvider(src.mime) {
		writeJSONError(w, "Unsupported file type", http.StatusUnsupportedMediaType)
		return
	}
	if !h.provider.IsAvailable(src.file) {
		writeJSONError(w, errNoPreview.Error(), http.StatusNotFound)
		return
	}

	record := database.SourceFile{
		Path:     src.rel,
		MimeType: src.mime,
		Size:     src.file.Size(),
		ModTime:  src.file.ModTime(),
	}

	var entry cache.Entry
	save := false
	if h.store != nil {
		data, e, hit, err := h.store.Lookup(r.Context(), record, width, height)
		switch {
		case err != nil:
			logging.Warn("Preview cache lookup failed for %s: %v", src.rel, err)
		case hit:
			writePreview(w, data, "hit")
			return
		default:
			entry, save = e, true
		}
	}

	ch := h.flight.DoChan(flightKey(src.rel, width, height), func() (interface{}, error) {
		return h.render(r.Context(), src, width, height, entry, save)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			status := http.StatusNotFound
			if !errors.Is(res.Err, errNoPreview) {
				status = http.StatusServiceUnavailable
			}
			writeJSONError(w, res.Err.Error(), status)
			return
		}
		writePreview(w, res.Val.([]byte), "miss")
	case <-r.Context().Done():
		logging.Debug("Preview: client left while waiting for %s", src.rel)
	}
}

// render runs the pipeline for one (file, bounds) pair. It outlives the
// request that started it, since identical requests may be waiting on it,
// but is bounded by the preview timeout.
func (h *Handlers) render(reqCtx context.Context, src *source, width, height int, entry cache.Entry, save bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), h.previewTimeout)
	defer cancel()

	if h.gate != nil {
		if err := h.gate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("server busy: %w", err)
		}
	}
	release, err := h.limiter.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("server busy: %w", err)
	}
	defer release()

	bitmap, ok := h.provider.GetThumbnail(ctx, src.file, width, height)
	if !ok {
		return nil, errNoPreview
	}

	if save {
		if err := h.store.Save(ctx, entry, bitmap.Data); err != nil {
			logging.Warn("Failed to cache preview of %s: %v", src.rel, err)
		}
	}
	return bitmap.Data, nil
}

// flightKey identifies a render shared by concurrent callers.
func flightKey(rel string, width, height int) string {
	return fmt.Sprintf("%s|%d|%d", rel, width, height)
}

func writePreview(w http.ResponseWriter, data []byte, cacheStatus string) {
	w.Header().Set("Content-Type", mediatypes.MimeJPEG)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set(middleware.CacheStatusHeader, cacheStatus)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Preview: write failed: %v", err)
	}
}
