package media

import (
	"image"
	"io"
	"os"

	"camera-raw-previews/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation values.
const (
	OrientationUnspecified = 0
	OrientationNormal      = 1
	OrientationFlipH       = 2
	OrientationRotate180   = 3
	OrientationFlipV       = 4
	OrientationTranspose   = 5
	OrientationRotate270   = 6
	OrientationTransverse  = 7
	OrientationRotate90    = 8
)

// ReadOrientation reads the EXIF orientation of a TIFF or JPEG stream.
// Missing or unreadable metadata yields OrientationUnspecified.
func ReadOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return OrientationUnspecified
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationUnspecified
	}
	value, err := tag.Int(0)
	if err != nil || value < OrientationNormal || value > OrientationRotate90 {
		return OrientationUnspecified
	}
	return value
}

// readFileOrientation is ReadOrientation for a path.
func readFileOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return OrientationUnspecified
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()
	return ReadOrientation(f)
}

// ApplyOrientation transforms img so it displays upright for the given EXIF
// orientation value.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate270:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90:
		return imaging.Rotate90(img)
	}
	return img
}
