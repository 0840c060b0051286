// Package handlers provides the HTTP handlers of the preview service.
//
// It includes handlers for:
//   - Rendering previews of camera RAW and InDesign files, cached on disk
//   - Reporting whether a file can have a preview
//   - Health, readiness and version checks
package handlers
