//go:generate mockgen -source=progress.go -destination=mocks/mock_progress.go -package=mocks

// Package cli implements the command-line presentation layer: fetch
// progress, result tables, and cache statistics output.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// ProgressRefreshRate defines the refresh frequency of the spinner.
const ProgressRefreshRate = 100 * time.Millisecond

// Spinner is an interface that abstracts the behavior of a terminal
// spinner, decoupling progress display from a specific implementation and
// facilitating testing.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// terminalSpinner adapts briandowns/spinner to the Spinner interface.
type terminalSpinner struct {
	s *spinner.Spinner
}

// NewTerminalSpinner creates a spinner writing to out.
func NewTerminalSpinner(out io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[14], ProgressRefreshRate, spinner.WithWriter(out))
	return &terminalSpinner{s: s}
}

func (t *terminalSpinner) Start() { t.s.Start() }
func (t *terminalSpinner) Stop()  { t.s.Stop() }

func (t *terminalSpinner) UpdateSuffix(suffix string) { t.s.Suffix = suffix }

// FetchResult is the outcome of fetching a single URL.
type FetchResult struct {
	// URL is the fetch target.
	URL string
	// Bytes is the size of the returned image.
	Bytes int
	// Duration is how long the fetch took.
	Duration time.Duration
	// Err is non-nil when the fetch failed.
	Err error
}

// DisplayProgress animates sp while draining updates, showing a running
// completion count, and returns the collected results once the channel is
// closed.
func DisplayProgress(sp Spinner, total int, updates <-chan FetchResult) []FetchResult {
	sp.UpdateSuffix(fmt.Sprintf(" fetching 0/%d", total))
	sp.Start()
	defer sp.Stop()

	results := make([]FetchResult, 0, total)
	for res := range updates {
		results = append(results, res)
		sp.UpdateSuffix(fmt.Sprintf(" fetching %d/%d", len(results), total))
	}
	return results
}
