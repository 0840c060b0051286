package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"camera-raw-previews/internal/logging"
)

// UnknownFileType is reported when the tool does not declare a file type.
const UnknownFileType = "n/a"

// ErrProbeOutput is returned when the probe produced nothing usable.
var ErrProbeOutput = errors.New("unusable probe output")

// ProbeResult lists the embedded preview tags present in a file together
// with the file type the tool detected. It is immutable once returned.
type ProbeResult struct {
	FileType string
	tags     map[string]bool
}

// NewProbeResult builds a ProbeResult from a file type and the present tags.
func NewProbeResult(fileType string, tags ...string) *ProbeResult {
	if fileType == "" {
		fileType = UnknownFileType
	}
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return &ProbeResult{FileType: fileType, tags: set}
}

// Has reports whether tag is present.
func (p *ProbeResult) Has(tag string) bool {
	if p == nil {
		return false
	}
	return p.tags[tag]
}

// Tags returns the present tags in sorted order.
func (p *ProbeResult) Tags() []string {
	if p == nil {
		return nil
	}
	tags := make([]string, 0, len(p.tags))
	for tag := range p.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Probe lists the preview tags and file type of path with one invocation.
func (t *Tool) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	src, err := absPath(path)
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", path, err)
	}

	var stdout bytes.Buffer
	runErr := t.run(ctx, "probe", []string{"-json", "-preview:all", "-FileType", src}, &stdout)
	if runErr != nil {
		// The tool exits non-zero for minor problems but still prints
		// usable JSON; only give up when there is nothing to parse.
		if stdout.Len() == 0 || ctx.Err() != nil || errors.Is(runErr, ErrToolNotFound) {
			return nil, fmt.Errorf("probe %s: %w", src, runErr)
		}
		logging.Debug("exiftool: probe of %s exited with %v, parsing output anyway", src, runErr)
	}

	result, err := ParseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", src, err)
	}
	logging.Debug("exiftool: probe %s -> type=%s tags=%v", src, result.FileType, result.Tags())
	return result, nil
}

// ParseProbeOutput decodes `-json` output: an array holding one object per
// file. A bare object is accepted as well. Keys with null values are treated
// as absent.
func ParseProbeOutput(data []byte) (*ProbeResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrProbeOutput)
	}

	var object map[string]json.RawMessage
	if data[0] == '{' {
		if err := json.Unmarshal(data, &object); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProbeOutput, err)
		}
	} else {
		var objects []map[string]json.RawMessage
		if err := json.Unmarshal(data, &objects); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProbeOutput, err)
		}
		if len(objects) == 0 {
			return nil, fmt.Errorf("%w: no entries", ErrProbeOutput)
		}
		object = objects[0]
	}

	result := &ProbeResult{FileType: UnknownFileType, tags: make(map[string]bool, len(object))}
	for key, raw := range object {
		if isNull(raw) {
			continue
		}
		switch key {
		case "SourceFile":
		case "FileType":
			var fileType string
			if err := json.Unmarshal(raw, &fileType); err == nil && fileType != "" {
				result.FileType = fileType
			}
		default:
			result.tags[key] = true
		}
	}
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
