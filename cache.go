// Package imgcache is a client-side image cache. Downloaded images are kept
// on disk keyed by their origin URL, indexed by a persisted metadata store,
// refreshed through HTTP conditional revalidation, and bounded by an LRU
// size limit. Diagnostics flow through the pluggable logging facility in
// the logging subpackage.
package imgcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/uaremad/imgcache/internal/diskcache"
	"github.com/uaremad/imgcache/internal/download"
	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/internal/metastore"
	"github.com/uaremad/imgcache/internal/metrics"
	"github.com/uaremad/imgcache/internal/revalidate"
	"github.com/uaremad/imgcache/logging"
)

const (
	// DefaultMaxBytes bounds the cache at 256 MiB unless overridden.
	DefaultMaxBytes = 256 << 20
	// DefaultTTL is how long an entry is served without revalidation.
	DefaultTTL = 24 * time.Hour

	blobSubdir = "blobs"
	tracerName = "github.com/uaremad/imgcache"
)

// Entry describes one cached image. It is the metadata store's record,
// re-exported for the public API.
type Entry = metastore.Entry

// Stats is a point-in-time summary of cache usage.
type Stats struct {
	// Entries is the number of cached images.
	Entries int
	// TotalBytes is the summed size of all cached blobs.
	TotalBytes int64
	// MaxBytes is the configured size limit.
	MaxBytes int64
	// Dir is the cache root directory.
	Dir string
}

// Cache is a disk-backed, revalidating image cache. Safe for concurrent use.
type Cache struct {
	dir      string
	maxBytes int64
	ttl      time.Duration
	clock    func() time.Time

	blobs   *diskcache.Store
	meta    *metastore.Store
	client  *download.Client
	reval   *revalidate.Revalidator
	metrics *metrics.CacheMetrics

	group  singleflight.Group
	tracer trace.Tracer

	dlOpts []download.Option
}

// Option configures a Cache during Open.
type Option func(*Cache)

// WithMaxBytes sets the cache size limit; entries are evicted in LRU order
// to stay under it.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) { c.maxBytes = n }
}

// WithTTL sets how long an entry is served without revalidation. A
// non-positive TTL disables aging.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithHTTPClient replaces the downloader's HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Cache) { c.dlOpts = append(c.dlOpts, download.WithHTTPClient(h)) }
}

// WithRateLimit throttles downloads to n per second with burst b.
func WithRateLimit(n float64, b int) Option {
	return func(c *Cache) { c.dlOpts = append(c.dlOpts, download.WithRateLimit(n, b)) }
}

// WithRetryInterval sets the downloader's initial retry backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Cache) { c.dlOpts = append(c.dlOpts, download.WithRetryInterval(d)) }
}

// WithMetrics attaches a Prometheus recorder. Without it, instrumentation
// is a no-op.
func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.clock = now }
}

// Open creates or reopens a cache rooted at dir. A corrupt metadata index
// is discarded and rebuilt as entries are fetched; any other index error is
// fatal.
func Open(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:      dir,
		maxBytes: DefaultMaxBytes,
		ttl:      DefaultTTL,
		clock:    time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.WrapError(err, "creating cache directory %s", dir)
	}

	blobs, err := diskcache.New(filepath.Join(dir, blobSubdir))
	if err != nil {
		return nil, err
	}
	c.blobs = blobs

	c.meta = metastore.NewStore(dir)
	if err := c.meta.Load(); err != nil {
		var corrupt apperrors.CorruptIndexError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		// Already logged by the store; rebuild from scratch.
	}

	c.client = download.NewClient(c.dlOpts...)
	c.reval = revalidate.New(c.client)
	c.publishUsage()
	return c, nil
}

// Get returns the image at url, serving it from disk when fresh,
// revalidating it when stale, and downloading it when missing. Concurrent
// calls for the same URL are coalesced into a single fetch.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, Entry, error) {
	ctx, span := c.tracer.Start(ctx, "imgcache.Get",
		trace.WithAttributes(attribute.String("imgcache.url", url)))
	defer span.End()

	type result struct {
		data  []byte
		entry Entry
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		data, entry, outcome, err := c.lookup(ctx, url)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("imgcache.outcome", outcome))
		return result{data: data, entry: entry}, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, Entry{}, err
	}
	res := v.(result)
	return res.data, res.entry, nil
}

// lookup implements one non-coalesced Get and labels its outcome for the
// trace span.
func (c *Cache) lookup(ctx context.Context, url string) ([]byte, Entry, string, error) {
	now := c.clock()

	entry, ok := c.meta.Get(url)
	if ok && c.blobs.Exists(entry.Key) {
		switch revalidate.Check(entry, now, c.ttl) {
		case revalidate.Fresh:
			data, err := c.blobs.Read(entry.Key)
			if err == nil {
				c.metrics.IncHit()
				c.meta.Touch(url, now)
				logging.Trace(func() string { return fmt.Sprintf("cache hit for %s", url) })
				return data, entry, "hit", nil
			}
			logging.Warn(func() string {
				return fmt.Sprintf("cache blob unreadable for %s, refetching: %v", url, err)
			})
		case revalidate.Stale:
			return c.revalidateEntry(ctx, url, entry, now)
		case revalidate.Expired:
			logging.Trace(func() string { return fmt.Sprintf("cache entry for %s expired without validators", url) })
		}
	}

	c.metrics.IncMiss()
	data, entry, err := c.fetchAndStore(ctx, url, now)
	if err != nil {
		return nil, Entry{}, "", err
	}
	return data, entry, "miss", nil
}

// revalidateEntry refreshes a stale entry. On a failed round trip the
// cached copy is served as a fallback.
func (c *Cache) revalidateEntry(ctx context.Context, url string, entry Entry, now time.Time) ([]byte, Entry, string, error) {
	outcome, res, err := c.reval.Run(ctx, entry)
	c.metrics.IncRevalidation(outcome.String())

	switch outcome {
	case revalidate.OutcomeNotModified:
		entry.FetchedAt = now
		entry.LastAccess = now
		if res.ETag != "" {
			entry.ETag = res.ETag
		}
		if res.LastModified != "" {
			entry.LastModified = res.LastModified
		}
		c.meta.Put(entry)
		c.persistIndex()
		data, readErr := c.blobs.Read(entry.Key)
		if readErr != nil {
			return nil, Entry{}, "", readErr
		}
		return data, entry, "revalidated", nil

	case revalidate.OutcomeRefreshed:
		stored, storeErr := c.store(url, res, now)
		if storeErr != nil {
			return nil, Entry{}, "", storeErr
		}
		return res.Body, stored, "refreshed", nil

	default:
		logging.Warn(func() string {
			return fmt.Sprintf("revalidation of %s failed, serving cached copy: %v", url, err)
		})
		data, readErr := c.blobs.Read(entry.Key)
		if readErr != nil {
			return nil, Entry{}, "", errors.Join(err, readErr)
		}
		c.meta.Touch(url, now)
		return data, entry, "stale-fallback", nil
	}
}

// fetchAndStore downloads url unconditionally and caches the result.
func (c *Cache) fetchAndStore(ctx context.Context, url string, now time.Time) ([]byte, Entry, error) {
	res, err := c.client.Fetch(ctx, url, download.Conditional{})
	if err != nil {
		logging.Error(func() string { return fmt.Sprintf("download of %s failed: %v", url, err) })
		return nil, Entry{}, err
	}
	c.metrics.AddDownload(len(res.Body))

	entry, err := c.store(url, res, now)
	if err != nil {
		return nil, Entry{}, err
	}
	return res.Body, entry, nil
}

// store writes the downloaded blob and its metadata, then evicts in LRU
// order until the cache fits the size limit again. Blobs that cannot be
// cached (oversized, or the volume is full) are skipped: the caller still
// gets the bytes, the cache just does not keep them.
func (c *Cache) store(url string, res *download.Result, now time.Time) (Entry, error) {
	entry := Entry{
		URL:          url,
		Key:          diskcache.Key(url),
		ETag:         res.ETag,
		LastModified: res.LastModified,
		ContentType:  res.ContentType,
		Size:         int64(len(res.Body)),
		FetchedAt:    now,
		LastAccess:   now,
	}

	if entry.Size > c.maxBytes {
		logging.Warn(func() string {
			return fmt.Sprintf("cache skip for %s: %d bytes exceeds limit %d", url, entry.Size, c.maxBytes)
		})
		return entry, nil
	}

	if err := c.blobs.Write(entry.Key, res.Body); err != nil {
		var spaceErr apperrors.SpaceError
		if errors.As(err, &spaceErr) {
			logging.Warn(func() string { return fmt.Sprintf("cache skip for %s: %v", url, err) })
			return entry, nil
		}
		return Entry{}, err
	}

	c.meta.Put(entry)
	c.evictOverflow(url)
	c.persistIndex()
	c.publishUsage()
	return entry, nil
}

// evictOverflow removes least-recently-accessed entries until the cache is
// within its size limit. The entry for keep (the one just stored) is never
// evicted.
func (c *Cache) evictOverflow(keep string) {
	for c.meta.TotalSize() > c.maxBytes {
		victimFound := false
		for _, victim := range c.meta.OldestFirst() {
			if victim.URL == keep {
				continue
			}
			if err := c.blobs.Delete(victim.Key); err != nil {
				logging.Warn(func() string { return fmt.Sprintf("evicting %s: %v", victim.URL, err) })
			}
			c.meta.Delete(victim.URL)
			c.metrics.IncEviction()
			logging.Trace(func() string {
				return fmt.Sprintf("evicted %s (%d bytes)", victim.URL, victim.Size)
			})
			victimFound = true
			break
		}
		if !victimFound {
			return
		}
	}
}

// Remove drops url from the cache. Removing a missing URL is not an error.
func (c *Cache) Remove(url string) error {
	entry, ok := c.meta.Get(url)
	if !ok {
		return nil
	}
	if err := c.blobs.Delete(entry.Key); err != nil {
		return err
	}
	c.meta.Delete(url)
	c.persistIndex()
	c.publishUsage()
	return nil
}

// Purge empties the cache entirely.
func (c *Cache) Purge() error {
	if err := c.blobs.Purge(); err != nil {
		return err
	}
	c.meta.Clear()
	c.persistIndex()
	c.publishUsage()
	return nil
}

// Entries returns a snapshot of all cached entries, ordered by URL.
func (c *Cache) Entries() []Entry {
	return c.meta.All()
}

// Stats returns a point-in-time usage summary.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:    c.meta.Len(),
		TotalBytes: c.meta.TotalSize(),
		MaxBytes:   c.maxBytes,
		Dir:        c.dir,
	}
}

// Close persists the metadata index. The cache must not be used afterwards.
func (c *Cache) Close() error {
	return c.meta.Save()
}

// persistIndex saves the metadata index, downgrading failures to a warning:
// losing the index costs re-downloads, not correctness.
func (c *Cache) persistIndex() {
	if err := c.meta.Save(); err != nil {
		logging.Warn(func() string { return fmt.Sprintf("persisting metadata index: %v", err) })
	}
}

// publishUsage refreshes the size gauges.
func (c *Cache) publishUsage() {
	c.metrics.SetUsage(c.meta.TotalSize(), c.meta.Len())
}
