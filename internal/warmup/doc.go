// Package warmup pre-generates cached previews for the media directory.
//
// A run walks the media directory once, skipping hidden entries, and hands
// every file whose mime type belongs to the preview provider to a pool of
// workers. Each worker asks a Generator to make sure the default-size
// preview of the file is cached. Files that are already cached, and files
// without an embedded preview, are counted but otherwise left alone.
//
// The Warmer runs once at startup and, when an interval is configured,
// periodically afterwards. Only one run is active at a time; Run returns
// ErrRunning while another run is in progress. Stop cancels the current run
// and waits for it to return.
package warmup
