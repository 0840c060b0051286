package filesystem

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"camera-raw-previews/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the retry settings used for media volumes:
// three retries backing off 50ms, 100ms, 200ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// IsStale reports whether err is an NFS stale file handle error.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// Retry runs fn until it succeeds, fails with an error other than ESTALE, or
// the retries are exhausted. The backoff sleep is interrupted by ctx.
func Retry(ctx context.Context, op, path string, cfg RetryConfig, fn func() error) error {
	start := time.Now()
	volume := cfg.resolveVolume(path)
	obs := observer()
	defer func() {
		obs.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
	}()

	backoff := cfg.InitialBackoff
	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				obs.ObserveRetrySuccess(op, volume)
			}
			return nil
		}
		if !IsStale(err) {
			return err
		}
		obs.ObserveStaleError(op, volume)

		if attempt == cfg.MaxRetries {
			break
		}
		obs.ObserveRetryAttempt(op, volume)
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, cfg.MaxRetries)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			obs.ObserveRetryFailure(op, volume)
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, cfg.MaxRetries, path, err)
	obs.ObserveRetryFailure(op, volume)
	return err
}

// Stat is os.Stat with ESTALE retries.
func Stat(ctx context.Context, path string, cfg RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := Retry(ctx, "stat", path, cfg, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Open is os.Open with ESTALE retries.
func Open(ctx context.Context, path string, cfg RetryConfig) (*os.File, error) {
	var f *os.File
	err := Retry(ctx, "open", path, cfg, func() error {
		var openErr error
		f, openErr = os.Open(path)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
