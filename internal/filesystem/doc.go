/*
Package filesystem wraps the few filesystem calls the preview pipeline makes
against the media volume with retry logic for NFS stale file handle errors.

Media libraries are commonly served from NFS mounts. A stat or open that races
with a server-side change can fail with ESTALE even though the file is intact;
retrying after a short backoff almost always succeeds. Every other error is
returned immediately.

# Usage

	info, err := filesystem.Stat(ctx, "/media/2024/IMG_0001.CR2", filesystem.DefaultRetryConfig())

	f, err := filesystem.Open(ctx, path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Any other operation can be retried with Retry:

	err := filesystem.Retry(ctx, "readdir", dir, cfg, func() error {
	    entries, err = os.ReadDir(dir)
	    return err
	})

# Metrics

Operations are attributed to a volume label ("media", "cache", "database")
resolved by longest-prefix match through a VolumeResolver. Metrics are
recorded through the Observer set with SetObserver; the metrics package
provides the implementation.
*/
package filesystem
