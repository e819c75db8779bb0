package logging

import "strings"

// Level is the verbosity threshold of a logger. Levels are totally ordered,
// ascending from LevelNone (suppress everything) to LevelTrace (most
// verbose). A message at rank R is emitted only when R <= the configured
// level, so a logger at LevelWarn emits warnings and errors but suppresses
// trace output.
type Level int

// Severity levels, in ascending order of verbosity.
const (
	// LevelNone suppresses all output.
	LevelNone Level = iota
	// LevelError emits errors only.
	LevelError
	// LevelWarn emits warnings and errors.
	LevelWarn
	// LevelTrace emits everything, including execution tracing.
	LevelTrace
)

// String returns the tag used for the level in emitted lines.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a textual level name (case-insensitive) into a Level.
// Unrecognized names report ok=false and LevelNone.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(name) {
	case "none", "off":
		return LevelNone, true
	case "error":
		return LevelError, true
	case "warn", "warning":
		return LevelWarn, true
	case "trace":
		return LevelTrace, true
	}
	return LevelNone, false
}

// allows reports whether a message at rank r passes the threshold l.
// LevelNone never passes: "no logging" is a real level, not an absence.
func (l Level) allows(r Level) bool {
	return r != LevelNone && r <= l
}
