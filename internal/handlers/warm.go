package handlers

import (
	"context"
	"errors"

	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/mediatypes"
	"camera-raw-previews/internal/preview"
	"camera-raw-previews/internal/warmup"
)

var errCacheDisabled = errors.New("preview cache disabled")

// Warm caches the full-size preview of rel, the size GetPreview serves when
// no bounds are given. It shares the cache and in-flight renders with HTTP
// requests.
func (h *Handlers) Warm(ctx context.Context, rel string) (warmup.Result, error) {
	if h.store == nil {
		return warmup.Declined, errCacheDisabled
	}

	abs, rel, err := h.resolveMediaPath(rel)
	if err != nil {
		return warmup.Declined, err
	}
	file, err := preview.OpenLocalFile(ctx, abs, h.retry)
	if err != nil {
		return warmup.Declined, err
	}

	src := &source{file: file, rel: rel, mime: mediatypes.MimeTypeForPath(rel)}
	if !mediatypes.MatchesProvider(src.mime) || !h.provider.IsAvailable(file) {
		return warmup.Declined, nil
	}

	record := database.SourceFile{
		Path:     rel,
		MimeType: src.mime,
		Size:     file.Size(),
		ModTime:  file.ModTime(),
	}
	_, entry, hit, err := h.store.Lookup(ctx, record, h.maxSize, h.maxSize)
	if err != nil {
		return warmup.Declined, err
	}
	if hit {
		return warmup.Cached, nil
	}

	_, err, _ = h.flight.Do(flightKey(rel, h.maxSize, h.maxSize), func() (interface{}, error) {
		return h.render(ctx, src, h.maxSize, h.maxSize, entry, true)
	})
	switch {
	case errors.Is(err, errNoPreview):
		return warmup.Declined, nil
	case err != nil:
		return warmup.Declined, err
	}
	return warmup.Generated, nil
}
