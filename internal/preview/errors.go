package preview

import (
	"errors"
	"fmt"
)

// Cause classifies why a request produced no preview.
type Cause int

// Failure causes.
const (
	CauseNone Cause = iota
	CauseSourceUnavailable
	CauseProbeFailure
	CauseNoPreviewAvailable
	CauseMissingCapability
	CauseExtractionFailure
	CauseDecodeFailure
	CauseEncodeFailure
	CauseInvalidResult
)

var causeNames = [...]string{
	CauseNone:               "none",
	CauseSourceUnavailable:  "source_unavailable",
	CauseProbeFailure:       "probe_failure",
	CauseNoPreviewAvailable: "no_preview_available",
	CauseMissingCapability:  "missing_capability",
	CauseExtractionFailure:  "extraction_failure",
	CauseDecodeFailure:      "decode_failure",
	CauseEncodeFailure:      "encode_failure",
	CauseInvalidResult:      "invalid_result",
}

// String returns the snake_case name used in logs and metric labels.
func (c Cause) String() string {
	if c < 0 || int(c) >= len(causeNames) {
		return fmt.Sprintf("cause(%d)", int(c))
	}
	return causeNames[c]
}

var (
	errNoPreviewTag    = errors.New("no embedded preview tag present")
	errTIFFUnsupported = errors.New("TIFF preview present but TIFF decoding is unavailable")
)

// Error is a failed request. State is the last state reached before the
// failure.
type Error struct {
	Cause Cause
	State State
	Tag   Tag
	Path  string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Cause.String() + " in state " + e.State.String()
	if e.Tag != "" {
		msg += " (tag " + string(e.Tag) + ")"
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CauseOf returns the cause of err, CauseNone for nil and for errors that
// did not come from this package.
func CauseOf(err error) Cause {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Cause
	}
	return CauseNone
}
