package logging

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

// ZerologLogger routes emissions to a zerolog.Logger, for hosts that want
// the cache's diagnostics folded into their structured logging pipeline.
// Trace maps to zerolog's debug level, warn and error map directly; the
// call-site file and line travel as structured fields.
type ZerologLogger struct {
	level Level
	zl    zerolog.Logger
}

var _ Logger = ZerologLogger{}

// NewZerologLogger wraps zl as a Logger gated at the given level. Gating is
// performed by this adapter, independent of zl's own level, so the lazy
// payload contract holds regardless of the zerolog configuration.
func NewZerologLogger(zl zerolog.Logger, level Level) ZerologLogger {
	return ZerologLogger{level: level, zl: zl}
}

// Level returns the configured minimum severity.
func (z ZerologLogger) Level() Level { return z.level }

// Trace emits through zerolog's debug level.
func (z ZerologLogger) Trace(msg func() string, file string, line int) {
	if !z.level.allows(LevelTrace) {
		return
	}
	z.event(z.zl.Debug(), msg, file, line)
}

// Warn emits through zerolog's warn level.
func (z ZerologLogger) Warn(msg func() string, file string, line int) {
	if !z.level.allows(LevelWarn) {
		return
	}
	z.event(z.zl.Warn(), msg, file, line)
}

// Error emits through zerolog's error level.
func (z ZerologLogger) Error(msg func() string, file string, line int) {
	if !z.level.allows(LevelError) {
		return
	}
	z.event(z.zl.Error(), msg, file, line)
}

func (ZerologLogger) event(ev *zerolog.Event, msg func() string, file string, line int) {
	ev.Str("file", filepath.Base(file)).Int("line", line).Msg(msg())
}
