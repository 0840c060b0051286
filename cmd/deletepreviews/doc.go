// Command deletepreviews removes cached previews of camera RAW and InDesign
// files so they are regenerated on next request.
//
// Usage:
//
//	deletepreviews [--mime TYPE]... [--force] [--yes]
//
// Without --force nothing is deleted; every source file whose previews
// would be removed is listed instead. --mime may be repeated and defaults
// to image/x-dcraw and image/x-indesign. When stdin is a terminal a forced
// run asks for confirmation unless --yes is given.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//	CACHE_DIR    - Path to preview cache directory (default: /cache)
package main
