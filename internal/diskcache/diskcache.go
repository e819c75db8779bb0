// Package diskcache stores image blobs on the local filesystem. Blobs are
// content-addressed by the SHA-256 of their origin URL, so cache files have
// stable, collision-free names regardless of URL length or characters.
package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	apperrors "github.com/uaremad/imgcache/internal/errors"
)

// Store is a directory of content-addressed blob files.
type Store struct {
	dir string
}

// New opens (creating if needed) a blob store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.WrapError(err, "creating blob directory %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Key derives the content address for a URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk location for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Write stores data under key atomically: the blob is written to a uniquely
// named temp file and renamed into place, so concurrent readers never see a
// partial blob. The volume's free space is checked first; a blob that would
// not fit is refused with a SpaceError.
func (s *Store) Write(key string, data []byte) error {
	free, err := s.FreeSpace()
	if err == nil && uint64(len(data)) > free {
		return apperrors.SpaceError{Requested: uint64(len(data)), Available: free}
	}

	tmp := filepath.Join(s.dir, fmt.Sprintf(".%s.%s.tmp", key, uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.WrapError(err, "writing blob %s", key)
	}
	if err := os.Rename(tmp, s.Path(key)); err != nil {
		os.Remove(tmp)
		return apperrors.WrapError(err, "placing blob %s", key)
	}
	return nil
}

// Read returns the blob stored under key.
func (s *Store) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return nil, apperrors.WrapError(err, "reading blob %s", key)
	}
	return data, nil
}

// Exists reports whether a blob is present for key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Delete removes the blob for key. Deleting a missing blob is not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.WrapError(err, "deleting blob %s", key)
	}
	return nil
}

// Purge removes every blob in the store, including stale temp files.
func (s *Store) Purge() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return apperrors.WrapError(err, "listing blob directory %s", s.dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return apperrors.WrapError(err, "purging blob %s", e.Name())
		}
	}
	return nil
}
