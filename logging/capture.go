package logging

import (
	"path/filepath"
	"sync"
)

// Record is a single captured emission.
type Record struct {
	Rank    Level
	Message string
	File    string
	Line    int
}

// CaptureLogger records emissions in memory instead of printing them. It is
// intended for tests and for hosts that surface diagnostics in their own UI.
// Safe for concurrent use.
type CaptureLogger struct {
	level Level

	mu      sync.Mutex
	records []Record
}

var _ Logger = (*CaptureLogger)(nil)

// NewCaptureLogger creates a capture sink gated at the given level.
func NewCaptureLogger(level Level) *CaptureLogger {
	return &CaptureLogger{level: level}
}

// Level returns the configured minimum severity.
func (c *CaptureLogger) Level() Level { return c.level }

// Trace captures a trace-rank record if the level permits it.
func (c *CaptureLogger) Trace(msg func() string, file string, line int) {
	c.capture(LevelTrace, msg, file, line)
}

// Warn captures a warn-rank record if the level permits it.
func (c *CaptureLogger) Warn(msg func() string, file string, line int) {
	c.capture(LevelWarn, msg, file, line)
}

// Error captures an error-rank record if the level permits it.
func (c *CaptureLogger) Error(msg func() string, file string, line int) {
	c.capture(LevelError, msg, file, line)
}

// Records returns a copy of everything captured so far.
func (c *CaptureLogger) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Reset discards all captured records.
func (c *CaptureLogger) Reset() {
	c.mu.Lock()
	c.records = nil
	c.mu.Unlock()
}

func (c *CaptureLogger) capture(rank Level, msg func() string, file string, line int) {
	if !c.level.allows(rank) {
		return
	}
	rec := Record{Rank: rank, Message: msg(), File: filepath.Base(file), Line: line}
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
}
