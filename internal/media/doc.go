// Package media turns an extracted preview artifact into the final bounded
// JPEG returned to the host.
//
// The Normalizer decodes the artifact according to its extension, applies
// the stored EXIF orientation, shrinks it to fit the requested bounds while
// keeping the aspect ratio (never enlarging it) and re-encodes it as JPEG at
// quality 90. Two backends exist:
//   - libvips (govips), used when initialized and able to load the format
//   - pure Go (imaging, golang.org/x/image/tiff, goexif) otherwise
package media
