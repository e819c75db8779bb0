package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uaremad/imgcache"
	"github.com/uaremad/imgcache/internal/cli"
	apperrors "github.com/uaremad/imgcache/internal/errors"
)

// fetchConcurrency caps the number of simultaneous cache fetches.
const fetchConcurrency = 4

// runFetch fetches every configured URL through the cache and presents the
// outcome. Individual failures never abort the other fetches; the worst
// per-URL error decides the exit code.
func (a *Application) runFetch(ctx context.Context, cache *imgcache.Cache, out io.Writer) int {
	if len(a.Config.URLs) == 0 {
		fmt.Fprintf(a.ErrWriter, "No URLs given. Run with -h for usage.\n")
		return apperrors.ExitErrorConfig
	}

	// Lifecycle: overall timeout + signal cancellation.
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	updates := make(chan cli.FetchResult)

	g := new(errgroup.Group)
	g.SetLimit(fetchConcurrency)
	for _, url := range a.Config.URLs {
		g.Go(func() error {
			start := time.Now()
			data, _, err := cache.Get(ctx, url)
			updates <- cli.FetchResult{
				URL:      url,
				Bytes:    len(data),
				Duration: time.Since(start),
				Err:      err,
			}
			return nil
		})
	}
	go func() {
		// Workers report through the channel and never return errors.
		_ = g.Wait()
		close(updates)
	}()

	var results []cli.FetchResult
	if a.Config.Quiet {
		for res := range updates {
			results = append(results, res)
		}
	} else {
		results = cli.DisplayProgress(cli.NewTerminalSpinner(out), len(a.Config.URLs), updates)
		cli.PresentResults(results, out)
	}

	return exitCodeForResults(ctx, results)
}

// exitCodeForResults picks the process exit code: context errors win, then
// the first per-URL failure.
func exitCodeForResults(ctx context.Context, results []cli.FetchResult) int {
	if err := ctx.Err(); err != nil {
		return apperrors.ExitCodeFor(err)
	}
	for _, res := range results {
		if res.Err != nil {
			return apperrors.ExitCodeFor(res.Err)
		}
	}
	return apperrors.ExitSuccess
}
