// Package cache stores generated previews on disk, indexed by the database.
//
// Previews of a source file live in a folder named after its database id,
// spread over ten shard directories by the id's last digit:
//
//	<CACHE_DIR>/preview/<id % 10>/<id>/<width>-<height>.jpg
//
// A cached preview is served only while the source file keeps the size and
// mod time recorded when it was generated. Purge removes the preview folders
// of chosen mime types, one preview at a time, each file together with its
// database row.
package cache
