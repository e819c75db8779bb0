package logging

import (
	"fmt"
	"runtime"
	"sync"
)

// The global logger slot. Guarded by a RWMutex so that concurrent readers
// never observe a partially written reference and concurrent writers cannot
// corrupt it. The slot is never empty: clearing it resets to a BasicLogger
// at LevelNone, so "no logging" is an always-present no-op logger rather
// than an absence.
var (
	currentMu sync.RWMutex
	current   Logger = NewBasicLogger(LevelNone)
)

// Current returns the presently installed logger. The result is never nil.
func Current() Logger {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetLogger installs l as the global logger. Passing nil resets the slot to
// the silent default (a BasicLogger at LevelNone).
func SetLogger(l Logger) {
	if l == nil {
		l = NewBasicLogger(LevelNone)
	}
	currentMu.Lock()
	current = l
	currentMu.Unlock()
}

// Enable installs a fresh BasicLogger at the given level and emits one
// trace-level confirmation, visible only when the new level permits trace
// output. It is the conventional startup entry point:
//
//	logging.Enable(logging.LevelWarn)
func Enable(level Level) {
	l := NewBasicLogger(level)
	SetLogger(l)

	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "???", 0
	}
	l.Trace(func() string {
		return fmt.Sprintf("logging enabled at level %s", level)
	}, file, line)
}
