package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Logger is the capability contract for a leveled log sink. A message is
// emitted only if its rank passes the logger's configured level; when it is
// suppressed, the payload thunk must not be evaluated.
//
// Loggers are immutable once constructed. Reconfiguration happens by
// installing a replacement instance through SetLogger, never by mutating a
// logger in place.
type Logger interface {
	// Level returns the configured minimum severity for emission.
	Level() Level
	// Trace reports execution tracing. file and line identify the call site.
	Trace(msg func() string, file string, line int)
	// Warn reports a recoverable anomaly.
	Warn(msg func() string, file string, line int)
	// Error reports a failure.
	Error(msg func() string, file string, line int)
}

// BasicLogger is the default Logger implementation. It writes one formatted
// line per emission to standard output:
//
//	[LEVEL] <basename-of-source-file> [<line>]: <message>
//
// Emission is best-effort: write failures are not modeled, this is a
// diagnostic channel, not a durability one.
type BasicLogger struct {
	level Level
	out   io.Writer
}

var _ Logger = BasicLogger{}

// NewBasicLogger creates a stdout logger gated at the given level.
func NewBasicLogger(level Level) BasicLogger {
	return BasicLogger{level: level, out: os.Stdout}
}

// newBasicLoggerTo is the test seam for capturing BasicLogger output.
func newBasicLoggerTo(out io.Writer, level Level) BasicLogger {
	return BasicLogger{level: level, out: out}
}

// Level returns the configured minimum severity.
func (b BasicLogger) Level() Level { return b.level }

// Trace emits a trace line if the configured level permits it.
func (b BasicLogger) Trace(msg func() string, file string, line int) {
	b.emit(LevelTrace, msg, file, line)
}

// Warn emits a warning line if the configured level permits it.
func (b BasicLogger) Warn(msg func() string, file string, line int) {
	b.emit(LevelWarn, msg, file, line)
}

// Error emits an error line if the configured level permits it.
func (b BasicLogger) Error(msg func() string, file string, line int) {
	b.emit(LevelError, msg, file, line)
}

// emit performs the threshold check before evaluating the payload, so a
// suppressed message never pays its construction cost.
func (b BasicLogger) emit(rank Level, msg func() string, file string, line int) {
	if !b.level.allows(rank) {
		return
	}
	fmt.Fprintf(b.out, "[%s] %s [%d]: %s\n", rank, filepath.Base(file), line, msg())
}

// Trace logs an execution-tracing message through the current global logger,
// stamping it with the caller's file and line.
func Trace(msg func() string) {
	file, line := callerLocation()
	Current().Trace(msg, file, line)
}

// Warn logs a warning through the current global logger, stamping it with
// the caller's file and line.
func Warn(msg func() string) {
	file, line := callerLocation()
	Current().Warn(msg, file, line)
}

// Error logs an error through the current global logger, stamping it with
// the caller's file and line.
func Error(msg func() string) {
	file, line := callerLocation()
	Current().Error(msg, file, line)
}

// callerLocation resolves the file and line of the caller two frames up
// (the call site of the exported package helpers).
func callerLocation() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return file, line
}
