package preview

import "fmt"

// State is a step of the preview state machine.
type State int

// Pipeline states in transition order. StateFailed is reachable from every
// state before StateDone.
const (
	StateStart State = iota
	StateLocalFile
	StateProbed
	StateSelected
	StateExtracted
	StateNormalized
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateStart:      "start",
	StateLocalFile:  "local_file",
	StateProbed:     "probed",
	StateSelected:   "selected",
	StateExtracted:  "extracted",
	StateNormalized: "normalized",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// failureCause is the cause of a failure while leaving s.
func (s State) failureCause() Cause {
	switch s {
	case StateStart:
		return CauseSourceUnavailable
	case StateLocalFile:
		return CauseProbeFailure
	case StateProbed:
		return CauseNoPreviewAvailable
	case StateSelected:
		return CauseExtractionFailure
	case StateExtracted:
		return CauseDecodeFailure
	default:
		return CauseInvalidResult
	}
}
