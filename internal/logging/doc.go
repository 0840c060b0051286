// Package logging provides the leveled, printf-style logger used throughout
// the preview service and its maintenance tools.
//
// Levels, from most to least verbose:
//   - DEBUG: per-stage pipeline detail, external tool command lines
//   - INFO: startup, configuration, cache activity
//   - WARN: recoverable problems (best-effort steps that failed)
//   - ERROR: a request or command failed
//
// The level is read once from LOG_LEVEL (or DEBUG=true) and can be
// overridden with SetLevel.
package logging
