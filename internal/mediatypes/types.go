package mediatypes

import (
	"regexp"
	"strings"
)

const (
	// MimeRaw is the mime type assigned to every supported camera RAW format
	// and to TIFF files routed through the RAW provider.
	MimeRaw = "image/x-dcraw"
	// MimeInDesign is the mime type assigned to Adobe InDesign documents.
	MimeInDesign = "image/x-indesign"
	// MimeJPEG is the type of every generated preview.
	MimeJPEG = "image/jpeg"
	// MimeOctetStream is returned for unknown extensions.
	MimeOctetStream = "application/octet-stream"
)

// ProviderPattern matches the mime types handled by the preview provider,
// optionally followed by parameters.
var ProviderPattern = regexp.MustCompile(`^((image/x-dcraw)|(image/x-indesign))(;+.*)*$`)

// DefaultPurgeMimeTypes are the mime types whose cached previews the
// maintenance CLI deletes when none are given.
var DefaultPurgeMimeTypes = []string{MimeRaw, MimeInDesign}

// ExtensionMimeTypes maps lowercase extensions (with leading dot) to the mime
// type registered with the host's detector.
var ExtensionMimeTypes = map[string]string{
	".3fr":  MimeRaw,
	".arw":  MimeRaw,
	".cr2":  MimeRaw,
	".cr3":  MimeRaw,
	".crw":  MimeRaw,
	".dng":  MimeRaw,
	".erf":  MimeRaw,
	".fff":  MimeRaw,
	".iiq":  MimeRaw,
	".kdc":  MimeRaw,
	".mrw":  MimeRaw,
	".nef":  MimeRaw,
	".nrw":  MimeRaw,
	".orf":  MimeRaw,
	".ori":  MimeRaw,
	".pef":  MimeRaw,
	".raf":  MimeRaw,
	".rw2":  MimeRaw,
	".rwl":  MimeRaw,
	".sr2":  MimeRaw,
	".srf":  MimeRaw,
	".srw":  MimeRaw,
	".tif":  MimeRaw,
	".tiff": MimeRaw,
	".x3f":  MimeRaw,
	".indd": MimeInDesign,
}

// ViewerAliases maps provider mime types to a type a browser can display
// once the preview has been rendered.
var ViewerAliases = map[string]string{
	MimeRaw: MimeJPEG,
}

// GetMimeType returns the registered mime type for an extension.
// The extension should be lowercase and include the leading dot (e.g., ".nef").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := ExtensionMimeTypes[ext]; ok {
		return mime
	}
	return MimeOctetStream
}

// MimeTypeForPath returns the registered mime type for a file name or path.
func MimeTypeForPath(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || strings.ContainsAny(path[idx:], `/\`) {
		return MimeOctetStream
	}
	return GetMimeType(strings.ToLower(path[idx:]))
}

// MatchesProvider reports whether the preview provider handles mime.
func MatchesProvider(mime string) bool {
	return ProviderPattern.MatchString(mime)
}

// IsTIFFExtension reports whether ext (with or without the leading dot, any
// case) names a TIFF file.
func IsTIFFExtension(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "tif", "tiff":
		return true
	}
	return false
}

// ViewerMimeType returns the type a viewer should announce for mime.
func ViewerMimeType(mime string) string {
	if alias, ok := ViewerAliases[mime]; ok {
		return alias
	}
	return mime
}
