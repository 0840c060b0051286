// Package mediatypes holds the mime-type vocabulary shared by the preview
// provider, the preview service and the cache maintenance CLI.
//
// It is a dependency-free leaf package so every other package can import it
// without creating cycles.
//
// # Extension Detection
//
// The host's file-type detector does not know camera RAW and InDesign
// extensions. ExtensionMimeTypes supplies them:
//
//	ext := strings.ToLower(filepath.Ext(name))
//	mime := mediatypes.GetMimeType(ext) // "image/x-dcraw" for ".cr2"
//
// # Routing
//
// ProviderPattern is the expression a host uses to route preview requests to
// the RAW provider. It accepts trailing mime parameters:
//
//	mediatypes.MatchesProvider("image/x-dcraw")            // true
//	mediatypes.MatchesProvider("image/x-indesign; v=1")    // true
//	mediatypes.MatchesProvider("image/jpeg")               // false
package mediatypes
