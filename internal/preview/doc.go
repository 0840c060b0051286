/*
Package preview turns camera RAW and InDesign files into JPEG previews by
extracting the bitmap the camera or application already embedded in them.

A request walks a fixed state machine:

	Start -> LocalFile -> Probed -> Selected -> Extracted -> Normalized -> Done

Any transition may instead end in Failed. Each failure carries a Cause
(SourceUnavailable, ProbeFailure, NoPreviewAvailable, MissingCapability,
ExtractionFailure, DecodeFailure, EncodeFailure, InvalidResult) which is
logged and counted but never returned to the caller: GetThumbnail reports
failure only as (nil, false), so the host can always fall back to a generic
icon.

# Tag selection

Embedded previews live under vendor-dependent tags. Select scans them in a
fixed priority order kept as data in PriorityTags and TIFFTags:

	JpgFromRaw > PageImage > PreviewImage > OtherImage > ThumbnailImage   (jpg)
	SourceFile when the file itself is a TIFF and TIFF can be decoded    (tiff)
	PreviewTIFF > ThumbnailTIFF                                          (tiff)

A TIFF preview in an environment without TIFF decoding is a
MissingCapability failure, distinct from NoPreviewAvailable.

# Temporary files

Every file a request creates (copies of remote sources, extracted
artifacts) is registered with the request's TempFiles the moment it exists.
GetThumbnail drains the set from a single deferred call, so cleanup runs on
success, on every failure, on cancellation and on panic.

# Capabilities

Environment computes the TIFF decode flag and locates the external tool at
most once per process and is shared by every Pipeline.
*/
package preview
