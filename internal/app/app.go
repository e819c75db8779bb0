// Package app wires configuration, logging, the cache, and the
// presentation layers into the imgcache command. It owns mode dispatch:
// fetching URLs, printing statistics, purging, and the TUI dashboard.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/uaremad/imgcache"
	"github.com/uaremad/imgcache/internal/cli"
	"github.com/uaremad/imgcache/internal/config"
	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/internal/metrics"
	"github.com/uaremad/imgcache/internal/server"
	"github.com/uaremad/imgcache/internal/tui"
	"github.com/uaremad/imgcache/internal/ui"
	"github.com/uaremad/imgcache/logging"
)

// Application represents the imgcache application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer

	// openCache is replaceable in tests.
	openCache func(dir string, opts ...imgcache.Option) (*imgcache.Cache, error)
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithCacheOpener sets a custom cache constructor for the application.
func WithCacheOpener(open func(dir string, opts ...imgcache.Option) (*imgcache.Cache, error)) AppOption {
	return func(a *Application) { a.openCache = open }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.openCache == nil {
		app.openCache = imgcache.Open
	}

	programName := "imgcache"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	logging.Enable(a.Config.Level())
	ui.InitTheme(a.Config.NoColor)

	cacheMetrics := metrics.New()
	cache, err := a.open(cacheMetrics)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error opening cache: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error closing cache: %v\n", err)
		}
	}()

	if a.Config.MetricsAddr != "" {
		a.serveMetrics(cacheMetrics)
	}

	switch {
	case a.Config.Purge:
		return a.runPurge(cache, out)
	case a.Config.Stats:
		return a.runStats(cache, out)
	case a.Config.TUI:
		return a.runTUI(ctx, cache)
	}

	return a.runFetch(ctx, cache, out)
}

// open builds the cache from the resolved configuration.
func (a *Application) open(m *metrics.CacheMetrics) (*imgcache.Cache, error) {
	opts := []imgcache.Option{
		imgcache.WithMaxBytes(a.Config.MaxBytes),
		imgcache.WithTTL(a.Config.TTL),
		imgcache.WithMetrics(m),
	}
	if a.Config.RatePerSec > 0 {
		opts = append(opts, imgcache.WithRateLimit(a.Config.RatePerSec, a.Config.Burst))
	}
	return a.openCache(a.Config.CacheDir, opts...)
}

// serveMetrics exposes the operational endpoint in the background.
func (a *Application) serveMetrics(m *metrics.CacheMetrics) {
	server.New(a.Config.MetricsAddr, m.Handler()).Start()
}

// runPurge empties the cache.
func (a *Application) runPurge(cache *imgcache.Cache, out io.Writer) int {
	if err := cache.Purge(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error purging cache: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	if !a.Config.Quiet {
		fmt.Fprintf(out, "Cache purged: %s\n", a.Config.CacheDir)
	}
	return apperrors.ExitSuccess
}

// runStats prints cache statistics and the entry listing.
func (a *Application) runStats(cache *imgcache.Cache, out io.Writer) int {
	cli.PresentStats(cache.Stats(), out)
	entries := cache.Entries()
	if len(entries) > 0 {
		fmt.Fprintln(out)
		cli.PresentEntries(entries, out)
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive dashboard.
func (a *Application) runTUI(ctx context.Context, cache *imgcache.Cache) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	return tui.Run(ctx, cache, a.Config, Version)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
