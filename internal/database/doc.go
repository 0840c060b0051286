// Package database provides the SQLite index of the preview cache.
//
// It records:
//   - source files that have been previewed (path, mime type, size, mod time)
//   - the previews generated for each source file, one row per size
//
// A cached preview is reused only while its source file keeps the size and
// mod time recorded here; UpsertSource reports when they changed.
//
// The database uses WAL mode for concurrent readers and creates its schema
// on first use.
package database
