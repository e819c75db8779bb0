package logging

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// newTestZerolog builds a bare zerolog logger writing JSON lines to w.
func newTestZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w)
}

// TestBasicLoggerGating tests threshold gating for every configured level
// against every message rank.
func TestBasicLoggerGating(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantTrace bool
		wantWarn  bool
		wantError bool
	}{
		{"none suppresses everything", LevelNone, false, false, false},
		{"error emits errors only", LevelError, false, false, true},
		{"warn emits warn and error", LevelWarn, false, true, true},
		{"trace emits everything", LevelTrace, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emit := func(rank Level) bool {
				var buf bytes.Buffer
				l := newBasicLoggerTo(&buf, tt.level)
				msg := func() string { return "probe" }
				switch rank {
				case LevelTrace:
					l.Trace(msg, "probe.go", 1)
				case LevelWarn:
					l.Warn(msg, "probe.go", 1)
				case LevelError:
					l.Error(msg, "probe.go", 1)
				}
				return buf.Len() > 0
			}

			if got := emit(LevelTrace); got != tt.wantTrace {
				t.Errorf("trace emitted = %v, want %v", got, tt.wantTrace)
			}
			if got := emit(LevelWarn); got != tt.wantWarn {
				t.Errorf("warn emitted = %v, want %v", got, tt.wantWarn)
			}
			if got := emit(LevelError); got != tt.wantError {
				t.Errorf("error emitted = %v, want %v", got, tt.wantError)
			}
		})
	}
}

// TestBasicLoggerFormat verifies the emitted line layout: level tag, source
// file basename with the path stripped, line number, message.
func TestBasicLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newBasicLoggerTo(&buf, LevelWarn)

	l.Warn(func() string { return "cache skip" }, "/deep/path/to/diskcache.go", 42)

	got := buf.String()
	want := "[WARN] diskcache.go [42]: cache skip\n"
	if got != want {
		t.Errorf("emitted line = %q, want %q", got, want)
	}
	if strings.Contains(got, "/deep/path") {
		t.Errorf("emitted line should strip the source path, got %q", got)
	}
}

// TestBasicLoggerLazyPayload verifies that a suppressed message never
// evaluates its payload thunk.
func TestBasicLoggerLazyPayload(t *testing.T) {
	var buf bytes.Buffer
	l := newBasicLoggerTo(&buf, LevelError)

	evaluated := false
	l.Trace(func() string {
		evaluated = true
		return "expensive"
	}, "lazy.go", 1)

	if evaluated {
		t.Error("suppressed trace payload was evaluated")
	}
	if buf.Len() != 0 {
		t.Errorf("suppressed trace produced output: %q", buf.String())
	}

	l.Error(func() string {
		evaluated = true
		return "cheap enough now"
	}, "lazy.go", 2)
	if !evaluated {
		t.Error("permitted error payload was not evaluated")
	}
}

// TestBasicLoggerLevel tests the level accessor.
func TestBasicLoggerLevel(t *testing.T) {
	for _, level := range []Level{LevelNone, LevelError, LevelWarn, LevelTrace} {
		if got := NewBasicLogger(level).Level(); got != level {
			t.Errorf("NewBasicLogger(%v).Level() = %v", level, got)
		}
	}
}

// TestCaptureLoggerRouting verifies that an installed capture sink receives
// emissions instead of standard output (custom logger substitution).
func TestCaptureLoggerRouting(t *testing.T) {
	c := NewCaptureLogger(LevelTrace)

	c.Warn(func() string { return "download failure" }, "/src/download.go", 7)
	c.Trace(func() string { return "revalidation outcome" }, "/src/revalidate.go", 9)

	recs := c.Records()
	if len(recs) != 2 {
		t.Fatalf("captured %d records, want 2", len(recs))
	}
	if recs[0].Rank != LevelWarn || recs[0].Message != "download failure" || recs[0].File != "download.go" || recs[0].Line != 7 {
		t.Errorf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Rank != LevelTrace || recs[1].File != "revalidate.go" {
		t.Errorf("unexpected second record: %+v", recs[1])
	}

	c.Reset()
	if len(c.Records()) != 0 {
		t.Error("Reset did not discard records")
	}
}

// TestCaptureLoggerGating verifies the capture sink honors its threshold and
// the laziness contract.
func TestCaptureLoggerGating(t *testing.T) {
	c := NewCaptureLogger(LevelError)

	evaluated := false
	c.Warn(func() string {
		evaluated = true
		return "suppressed"
	}, "gate.go", 1)

	if evaluated {
		t.Error("suppressed warn payload was evaluated")
	}
	if len(c.Records()) != 0 {
		t.Errorf("suppressed warn was captured: %+v", c.Records())
	}
}

// TestZerologLoggerEmission tests the zerolog adapter end to end against an
// in-memory sink.
func TestZerologLoggerEmission(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		emit     func(l Logger)
		contains []string
		silent   bool
	}{
		{
			name:     "error routes to zerolog error",
			level:    LevelError,
			emit:     func(l Logger) { l.Error(func() string { return "boom" }, "/a/b/cache.go", 3) },
			contains: []string{"boom", `"level":"error"`, "cache.go", `"line":3`},
		},
		{
			name:     "warn routes to zerolog warn",
			level:    LevelWarn,
			emit:     func(l Logger) { l.Warn(func() string { return "slow" }, "warn.go", 4) },
			contains: []string{"slow", `"level":"warn"`},
		},
		{
			name:     "trace routes to zerolog debug",
			level:    LevelTrace,
			emit:     func(l Logger) { l.Trace(func() string { return "step" }, "trace.go", 5) },
			contains: []string{"step", `"level":"debug"`},
		},
		{
			name:   "gated below threshold stays silent",
			level:  LevelError,
			emit:   func(l Logger) { l.Trace(func() string { return "hidden" }, "trace.go", 6) },
			silent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewZerologLogger(newTestZerolog(&buf), tt.level)

			tt.emit(l)

			out := buf.String()
			if tt.silent {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got: %s", want, out)
				}
			}
		})
	}
}

// TestHelpersStampCallSite verifies that the package-level helpers resolve
// the caller's file and line.
func TestHelpersStampCallSite(t *testing.T) {
	c := NewCaptureLogger(LevelTrace)
	SetLogger(c)
	t.Cleanup(func() { SetLogger(nil) })

	Warn(func() string { return "stamped" })

	recs := c.Records()
	if len(recs) != 1 {
		t.Fatalf("captured %d records, want 1", len(recs))
	}
	if recs[0].File != "logger_test.go" {
		t.Errorf("record file = %q, want logger_test.go", recs[0].File)
	}
	if recs[0].Line <= 0 {
		t.Errorf("record line = %d, want > 0", recs[0].Line)
	}
}

// ExampleBasicLogger demonstrates the emitted line format.
func ExampleBasicLogger() {
	l := NewBasicLogger(LevelTrace)
	l.Warn(func() string { return fmt.Sprintf("evicting %d entries", 3) }, "cache.go", 128)
	// Output: [WARN] cache.go [128]: evicting 3 entries
}
