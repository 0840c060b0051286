package exiftool

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"camera-raw-previews/internal/logging"

	"github.com/google/uuid"
)

// MinArtifactSize is the smallest extracted payload treated as real image
// data. Anything shorter means the tag held no usable preview.
const MinArtifactSize = 100

// ErrShortArtifact is returned when an extracted payload is below
// MinArtifactSize.
var ErrShortArtifact = errors.New("short artifact")

// ArtifactName derives the temporary file name for an extraction of src.
// The unique component keeps concurrent requests for the same file apart.
func ArtifactName(src, unique, ext string) string {
	return fmt.Sprintf("%x.%s", md5.Sum([]byte(src+unique)), ext)
}

// Extract dumps the payload of tag from src into a fresh temporary file with
// extension ext and copies the source orientation onto it. The artifact is
// handed to tracker as soon as it exists, so it is tracked even when a later
// step fails. Failing to copy the orientation is logged and ignored.
func (t *Tool) Extract(ctx context.Context, src, tag, ext string, tracker Tracker) (string, error) {
	src, err := absPath(src)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", tag, err)
	}

	artifact := filepath.Join(t.tempDir, ArtifactName(src, uuid.NewString(), ext))
	f, err := os.OpenFile(artifact, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("extract %s: create artifact: %w", tag, err)
	}
	if tracker != nil {
		tracker.Register(artifact)
	}

	runErr := t.run(ctx, "extract", []string{"-ignoreMinorErrors", "-b", "-" + tag, src}, f)
	if closeErr := f.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		if ctx.Err() != nil || errors.Is(runErr, ErrToolNotFound) || errors.Is(runErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("extract %s from %s: %w", tag, src, runErr)
		}
		logging.Debug("exiftool: extract %s from %s exited with %v", tag, src, runErr)
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", tag, err)
	}
	if info.Size() < MinArtifactSize {
		return "", fmt.Errorf("extract %s from %s: %w (%d bytes)", tag, src, ErrShortArtifact, info.Size())
	}

	if err := t.CopyOrientation(ctx, src, artifact); err != nil {
		logging.Warn("exiftool: could not copy orientation to %s: %v", filepath.Base(artifact), err)
	}
	return artifact, nil
}

// CopyOrientation copies the orientation tag of src onto artifact, replacing
// the artifact in place.
func (t *Tool) CopyOrientation(ctx context.Context, src, artifact string) error {
	src, err := absPath(src)
	if err != nil {
		return err
	}
	artifact, err = absPath(artifact)
	if err != nil {
		return err
	}
	return t.run(ctx, "copy_orientation", []string{
		"-ignoreMinorErrors", "-TagsFromFile", src, "-orientation", "-overwrite_original", artifact,
	}, nil)
}
