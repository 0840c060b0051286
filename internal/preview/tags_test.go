package preview

import (
	"errors"
	"testing"

	"camera-raw-previews/internal/exiftool"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		probe     *exiftool.ProbeResult
		tiff      bool
		want      Selection
		wantCause Cause
	}{
		{
			name:  "JpgFromRaw beats everything",
			probe: exiftool.NewProbeResult("NEF", "ThumbnailImage", "PreviewImage", "JpgFromRaw", "PreviewTIFF"),
			want:  Selection{Tag: TagJpgFromRaw, Ext: ExtJPEG},
		},
		{
			name:  "PageImage for InDesign",
			probe: exiftool.NewProbeResult("INDD", "PageImage", "ThumbnailImage"),
			want:  Selection{Tag: TagPageImage, Ext: ExtJPEG},
		},
		{
			name:  "PreviewImage",
			probe: exiftool.NewProbeResult("CR2", "PreviewImage"),
			want:  Selection{Tag: TagPreviewImage, Ext: ExtJPEG},
		},
		{
			name:  "OtherImage before ThumbnailImage",
			probe: exiftool.NewProbeResult("ORF", "ThumbnailImage", "OtherImage"),
			want:  Selection{Tag: TagOtherImage, Ext: ExtJPEG},
		},
		{
			name:  "JPEG tag wins over TIFF source",
			probe: exiftool.NewProbeResult("TIFF", "ThumbnailImage"),
			tiff:  true,
			want:  Selection{Tag: TagThumbnailImage, Ext: ExtJPEG},
		},
		{
			name:  "TIFF source file",
			probe: exiftool.NewProbeResult("TIFF"),
			tiff:  true,
			want:  Selection{Tag: TagSourceFile, Ext: ExtTIFF},
		},
		{
			name:  "TIFF source file beats PreviewTIFF",
			probe: exiftool.NewProbeResult("TIFF", "PreviewTIFF"),
			tiff:  true,
			want:  Selection{Tag: TagSourceFile, Ext: ExtTIFF},
		},
		{
			name:      "TIFF source file without capability",
			probe:     exiftool.NewProbeResult("TIFF"),
			wantCause: CauseNoPreviewAvailable,
		},
		{
			name:  "PreviewTIFF with capability",
			probe: exiftool.NewProbeResult("XYZ", "ThumbnailTIFF", "PreviewTIFF"),
			tiff:  true,
			want:  Selection{Tag: TagPreviewTIFF, Ext: ExtTIFF},
		},
		{
			name:  "ThumbnailTIFF with capability",
			probe: exiftool.NewProbeResult("DNG", "ThumbnailTIFF"),
			tiff:  true,
			want:  Selection{Tag: TagThumbnailTIFF, Ext: ExtTIFF},
		},
		{
			name:      "PreviewTIFF without capability",
			probe:     exiftool.NewProbeResult("XYZ", "PreviewTIFF"),
			wantCause: CauseMissingCapability,
		},
		{
			name:      "No tags",
			probe:     exiftool.NewProbeResult(exiftool.UnknownFileType),
			wantCause: CauseNoPreviewAvailable,
		},
		{
			name:      "No tags with capability",
			probe:     exiftool.NewProbeResult("CR3"),
			tiff:      true,
			wantCause: CauseNoPreviewAvailable,
		},
		{
			name:      "Nil probe",
			probe:     nil,
			tiff:      true,
			wantCause: CauseNoPreviewAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.probe, tt.tiff)
			if tt.wantCause != CauseNone {
				if CauseOf(err) != tt.wantCause {
					t.Fatalf("Select() error = %v, want cause %s", err, tt.wantCause)
				}
				if got != (Selection{}) {
					t.Errorf("Select() = %+v on failure, want zero Selection", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSelectIgnoresKeyOrder(t *testing.T) {
	outputs := []string{
		`[{"ThumbnailImage": "(Binary data)", "PreviewImage": "(Binary data)", "JpgFromRaw": "(Binary data)", "FileType": "NEF"}]`,
		`[{"JpgFromRaw": "(Binary data)", "FileType": "NEF", "ThumbnailImage": "(Binary data)", "PreviewImage": "(Binary data)"}]`,
		`[{"FileType": "NEF", "PreviewImage": "(Binary data)", "ThumbnailImage": "(Binary data)", "JpgFromRaw": "(Binary data)"}]`,
	}

	for _, out := range outputs {
		probe, err := exiftool.ParseProbeOutput([]byte(out))
		if err != nil {
			t.Fatalf("ParseProbeOutput() error = %v", err)
		}
		sel, err := Select(probe, false)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if sel.Tag != TagJpgFromRaw {
			t.Errorf("Select(%s) = %s, want JpgFromRaw", out, sel.Tag)
		}
	}
}

func TestSelectMissingCapabilityNamesTag(t *testing.T) {
	_, err := Select(exiftool.NewProbeResult("XYZ", "ThumbnailTIFF"), false)

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Select() error = %T, want *Error", err)
	}
	if perr.Tag != TagThumbnailTIFF {
		t.Errorf("Tag = %s, want ThumbnailTIFF", perr.Tag)
	}
	if perr.State != StateProbed {
		t.Errorf("State = %s, want probed", perr.State)
	}
}

func TestPriorityListsAreDisjoint(t *testing.T) {
	seen := make(map[Tag]bool)
	for _, tag := range append(append([]Tag{}, PriorityTags...), TIFFTags...) {
		if seen[tag] {
			t.Errorf("tag %s listed twice", tag)
		}
		if tag == TagSourceFile {
			t.Error("SourceFile must not be a scanned tag")
		}
		seen[tag] = true
	}
}
