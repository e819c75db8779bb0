package logging

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// emitAt sends one message of the given rank through l.
func emitAt(l Logger, rank Level) {
	msg := func() string { return "probe" }
	switch rank {
	case LevelTrace:
		l.Trace(msg, "prop.go", 1)
	case LevelWarn:
		l.Warn(msg, "prop.go", 1)
	case LevelError:
		l.Error(msg, "prop.go", 1)
	}
}

// TestGatingProperty verifies, for all thresholds T and message ranks R,
// that emission occurs if and only if R <= T under the ascending scale
// none < error < warn < trace.
func TestGatingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("emission iff rank within threshold", prop.ForAll(
		func(threshold, rank int) bool {
			tLevel := Level(threshold)
			rLevel := Level(rank)

			c := NewCaptureLogger(tLevel)
			emitAt(c, rLevel)

			emitted := len(c.Records()) == 1
			want := rLevel <= tLevel
			return emitted == want
		},
		gen.IntRange(int(LevelNone), int(LevelTrace)),
		gen.IntRange(int(LevelError), int(LevelTrace)),
	))

	properties.Property("suppressed payloads are never evaluated", prop.ForAll(
		func(threshold, rank int) bool {
			tLevel := Level(threshold)
			rLevel := Level(rank)

			evaluated := false
			c := NewCaptureLogger(tLevel)
			msg := func() string {
				evaluated = true
				return "probe"
			}
			switch rLevel {
			case LevelTrace:
				c.Trace(msg, "prop.go", 1)
			case LevelWarn:
				c.Warn(msg, "prop.go", 1)
			case LevelError:
				c.Error(msg, "prop.go", 1)
			}

			return evaluated == (rLevel <= tLevel)
		},
		gen.IntRange(int(LevelNone), int(LevelTrace)),
		gen.IntRange(int(LevelError), int(LevelTrace)),
	))

	properties.TestingRun(t)
}
