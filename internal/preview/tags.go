package preview

import (
	"strings"

	"camera-raw-previews/internal/exiftool"
)

// Tag names a slot in which a file may embed a preview bitmap.
type Tag string

// Known preview tags.
const (
	TagJpgFromRaw     Tag = "JpgFromRaw"
	TagPageImage      Tag = "PageImage"
	TagPreviewImage   Tag = "PreviewImage"
	TagOtherImage     Tag = "OtherImage"
	TagThumbnailImage Tag = "ThumbnailImage"
	TagPreviewTIFF    Tag = "PreviewTIFF"
	TagThumbnailTIFF  Tag = "ThumbnailTIFF"

	// TagSourceFile selects the source file itself. It is never extracted.
	TagSourceFile Tag = "SourceFile"
)

// Artifact extensions.
const (
	ExtJPEG = "jpg"
	ExtTIFF = "tiff"
)

// FileTypeTIFF is the probe's file type for plain TIFF files.
const FileTypeTIFF = "TIFF"

// PriorityTags are the JPEG preview tags, best first.
var PriorityTags = []Tag{
	TagJpgFromRaw,
	TagPageImage,
	TagPreviewImage,
	TagOtherImage,
	TagThumbnailImage,
}

// TIFFTags are the TIFF preview tags, best first. They are only considered
// when no JPEG preview exists.
var TIFFTags = []Tag{
	TagPreviewTIFF,
	TagThumbnailTIFF,
}

// Selection is the tag chosen for extraction and the extension of the
// artifact it yields.
type Selection struct {
	Tag Tag
	Ext string
}

// Select picks the preview to extract. The first matching rule wins:
//
//  1. the first of PriorityTags present, as jpg
//  2. the source file itself when it is a TIFF and TIFF can be decoded
//  3. the first of TIFFTags present, as tiff; MissingCapability when TIFF
//     cannot be decoded
//  4. otherwise NoPreviewAvailable
func Select(probe *exiftool.ProbeResult, tiffCapable bool) (Selection, error) {
	for _, tag := range PriorityTags {
		if probe.Has(string(tag)) {
			return Selection{Tag: tag, Ext: ExtJPEG}, nil
		}
	}

	if probe != nil && strings.EqualFold(probe.FileType, FileTypeTIFF) && tiffCapable {
		return Selection{Tag: TagSourceFile, Ext: ExtTIFF}, nil
	}

	for _, tag := range TIFFTags {
		if !probe.Has(string(tag)) {
			continue
		}
		if !tiffCapable {
			return Selection{}, &Error{
				Cause: CauseMissingCapability,
				State: StateProbed,
				Tag:   tag,
				Err:   errTIFFUnsupported,
			}
		}
		return Selection{Tag: tag, Ext: ExtTIFF}, nil
	}

	return Selection{}, &Error{
		Cause: CauseNoPreviewAvailable,
		State: StateProbed,
		Err:   errNoPreviewTag,
	}
}
