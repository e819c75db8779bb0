// Package revalidate decides whether a cached entry may be served as-is and
// refreshes stale entries through conditional requests.
package revalidate

import (
	"context"
	"fmt"
	"time"

	"github.com/uaremad/imgcache/internal/download"
	"github.com/uaremad/imgcache/internal/metastore"
	"github.com/uaremad/imgcache/logging"
)

// Freshness classifies a cached entry at a point in time.
type Freshness int

const (
	// Fresh entries are served directly from disk.
	Fresh Freshness = iota
	// Stale entries have outlived the TTL but carry validators, so a
	// conditional request can confirm them cheaply.
	Stale
	// Expired entries have outlived the TTL and carry no validators; the
	// only option is a full re-download.
	Expired
)

// String returns a human-readable freshness label.
func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Check classifies entry at time now under the given TTL. A non-positive
// TTL disables aging entirely: every cached entry stays fresh until evicted.
func Check(e metastore.Entry, now time.Time, ttl time.Duration) Freshness {
	if ttl <= 0 {
		return Fresh
	}
	if now.Sub(e.FetchedAt) <= ttl {
		return Fresh
	}
	if e.HasValidators() {
		return Stale
	}
	return Expired
}

// Outcome reports the result of a revalidation round trip.
type Outcome int

const (
	// OutcomeNotModified means the origin confirmed the cached blob.
	OutcomeNotModified Outcome = iota
	// OutcomeRefreshed means the origin returned a new blob.
	OutcomeRefreshed
	// OutcomeFailed means the round trip failed; the cached blob is served
	// as a fallback.
	OutcomeFailed
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotModified:
		return "not-modified"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher is the downloader capability the revalidator needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, cond download.Conditional) (*download.Result, error)
}

// Revalidator refreshes stale entries through conditional requests.
type Revalidator struct {
	fetcher Fetcher
}

// New creates a revalidator on top of the given fetcher.
func New(fetcher Fetcher) *Revalidator {
	return &Revalidator{fetcher: fetcher}
}

// Run performs one conditional round trip for entry. On OutcomeRefreshed the
// returned result carries the replacement blob and validators; on
// OutcomeNotModified it carries refreshed validators only; on OutcomeFailed
// the result is nil and err holds the cause.
func (r *Revalidator) Run(ctx context.Context, e metastore.Entry) (Outcome, *download.Result, error) {
	cond := download.Conditional{ETag: e.ETag, LastModified: e.LastModified}
	res, err := r.fetcher.Fetch(ctx, e.URL, cond)

	var outcome Outcome
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case res.NotModified:
		outcome = OutcomeNotModified
	default:
		outcome = OutcomeRefreshed
	}

	logging.Trace(func() string {
		return fmt.Sprintf("revalidation of %s: %s", e.URL, outcome)
	})
	if err != nil {
		return OutcomeFailed, nil, err
	}
	return outcome, res, nil
}
