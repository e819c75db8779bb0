// Package config parses the imgcache CLI configuration from command-line
// flags with environment variable overrides. Priority: CLI flags >
// environment variables > defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/logging"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "IMGCACHE_"

// Defaults for the CLI configuration.
const (
	DefaultMaxBytes = int64(256) << 20
	DefaultTTL      = 24 * time.Hour
	DefaultTimeout  = 2 * time.Minute
	DefaultLogLevel = "warn"
)

// AppConfig holds the fully resolved CLI configuration.
type AppConfig struct {
	// CacheDir is the cache root directory.
	CacheDir string
	// MaxBytes bounds the total size of cached blobs.
	MaxBytes int64
	// TTL is how long entries are served without revalidation.
	TTL time.Duration
	// Timeout bounds a whole CLI run.
	Timeout time.Duration
	// LogLevel is the textual severity for the global logging facility.
	LogLevel string
	// RatePerSec throttles downloads; zero disables throttling.
	RatePerSec float64
	// Burst is the download rate limiter burst.
	Burst int
	// MetricsAddr serves Prometheus metrics when non-empty (e.g. ":9090").
	MetricsAddr string
	// Stats prints cache statistics instead of fetching.
	Stats bool
	// Purge empties the cache instead of fetching.
	Purge bool
	// TUI launches the interactive dashboard.
	TUI bool
	// Quiet suppresses per-URL progress output.
	Quiet bool
	// NoColor disables ANSI colors.
	NoColor bool
	// URLs are the positional fetch targets.
	URLs []string
}

// defaultCacheDir resolves the per-user cache location, falling back to the
// working directory when the OS gives us nothing.
func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "imgcache")
	}
	return ".imgcache"
}

// ParseConfig parses args into an AppConfig, applies environment overrides
// for flags not explicitly set, and validates the result. Usage and errors
// are written to errWriter.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := AppConfig{
		CacheDir: defaultCacheDir(),
		MaxBytes: DefaultMaxBytes,
		TTL:      DefaultTTL,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
		Burst:    1,
	}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags] URL...\n\nFlags:\n", programName)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.CacheDir, "dir", cfg.CacheDir, "cache directory")
	fs.Int64Var(&cfg.MaxBytes, "max-bytes", cfg.MaxBytes, "cache size limit in bytes")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "entry freshness lifetime (0 disables aging)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall run timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log verbosity: none, error, warn, trace")
	fs.Float64Var(&cfg.RatePerSec, "rate", cfg.RatePerSec, "download rate limit per second (0 = unlimited)")
	fs.IntVar(&cfg.Burst, "burst", cfg.Burst, "download rate limiter burst")
	fs.StringVar(&cfg.MetricsAddr, "serve-metrics", cfg.MetricsAddr, "address to serve Prometheus metrics on (empty = off)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "print cache statistics and exit")
	fs.BoolVar(&cfg.Purge, "purge", cfg.Purge, "empty the cache and exit")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "launch the interactive dashboard")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "suppress progress output")
	fs.BoolVar(&cfg.Quiet, "q", cfg.Quiet, "suppress progress output (shorthand)")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable colored output")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg, fs)
	cfg.URLs = fs.Args()

	if err := validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// validate rejects configurations the application cannot run with.
func validate(cfg AppConfig) error {
	if cfg.MaxBytes <= 0 {
		return apperrors.NewConfigError("max-bytes must be positive, got %d", cfg.MaxBytes)
	}
	if cfg.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.TTL < 0 {
		return apperrors.NewConfigError("ttl must not be negative, got %s", cfg.TTL)
	}
	if cfg.RatePerSec < 0 {
		return apperrors.NewConfigError("rate must not be negative, got %v", cfg.RatePerSec)
	}
	if cfg.Burst < 1 {
		return apperrors.NewConfigError("burst must be at least 1, got %d", cfg.Burst)
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return apperrors.NewConfigError("unknown log level %q (use none, error, warn, or trace)", cfg.LogLevel)
	}
	return nil
}

// Level returns the parsed severity level. Valid by construction after
// ParseConfig; the zero level covers direct struct literals in tests.
func (c AppConfig) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}
