// Package metastore maintains the cache's metadata index: one entry per
// cached URL, holding the revalidation validators and access bookkeeping
// the eviction policy relies on. The index lives in memory behind a RWMutex
// and is persisted as a JSON file written atomically.
package metastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/logging"
)

// IndexFileName is the name of the persisted index inside the cache dir.
const IndexFileName = "index.json"

// Entry describes one cached image.
type Entry struct {
	// URL is the origin of the cached image.
	URL string `json:"url"`
	// Key is the content address of the blob on disk.
	Key string `json:"key"`
	// ETag is the validator returned by the origin, if any.
	ETag string `json:"etag,omitempty"`
	// LastModified is the Last-Modified header returned by the origin, if any.
	LastModified string `json:"last_modified,omitempty"`
	// ContentType is the MIME type reported by the origin.
	ContentType string `json:"content_type,omitempty"`
	// Size is the blob size in bytes.
	Size int64 `json:"size"`
	// FetchedAt is when the blob was last downloaded or revalidated.
	FetchedAt time.Time `json:"fetched_at"`
	// LastAccess is when the entry was last served; drives LRU eviction.
	LastAccess time.Time `json:"last_access"`
}

// HasValidators reports whether the entry carries something a conditional
// request can be built from.
func (e Entry) HasValidators() bool {
	return e.ETag != "" || e.LastModified != ""
}

// Store is the mutable metadata index. Safe for concurrent use.
type Store struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty index that persists to the index file inside dir.
func NewStore(dir string) *Store {
	return &Store{
		path:    filepath.Join(dir, IndexFileName),
		entries: make(map[string]Entry),
	}
}

// Load reads the persisted index. A missing file yields an empty index. A
// corrupt file is discarded with a warning and the store starts fresh; the
// returned CorruptIndexError is informational.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.WrapError(err, "reading metadata index %s", s.path)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		corrupt := apperrors.CorruptIndexError{Path: s.path, Cause: err}
		logging.Warn(func() string {
			return fmt.Sprintf("discarding %v", corrupt)
		})
		return corrupt
	}
	// A JSON null decodes into a nil map without error.
	if entries == nil {
		entries = make(map[string]Entry)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Save persists the index atomically: the JSON document is written to a
// uniquely named temp file in the same directory, then renamed over the
// index path so readers never observe a half-written file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return apperrors.WrapError(err, "encoding metadata index")
	}

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.WrapError(err, "writing metadata index %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return apperrors.WrapError(err, "replacing metadata index %s", s.path)
	}
	return nil
}

// Put inserts or replaces the entry for its URL.
func (s *Store) Put(e Entry) {
	s.mu.Lock()
	s.entries[e.URL] = e
	s.mu.Unlock()
}

// Get returns the entry for url, if present.
func (s *Store) Get(url string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[url]
	return e, ok
}

// Touch updates the last-access stamp for url. Missing entries are ignored.
func (s *Store) Touch(url string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[url]; ok {
		e.LastAccess = now
		s.entries[url] = e
	}
}

// Delete removes the entry for url and reports whether it existed.
func (s *Store) Delete(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[url]; !ok {
		return false
	}
	delete(s.entries, url)
	return true
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
}

// Len returns the number of indexed entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TotalSize returns the summed blob sizes of all entries.
func (s *Store) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, e := range s.entries {
		total += e.Size
	}
	return total
}

// All returns a snapshot of every entry, ordered by URL for stable output.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// OldestFirst returns a snapshot of every entry ordered by ascending
// last-access time, the order the eviction policy consumes them in.
func (s *Store) OldestFirst() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccess.Before(out[j].LastAccess) })
	return out
}
