//go:build !unix

package diskcache

import "errors"

var errUnsupported = errors.New("free space query not supported on this platform")

// FreeSpace is unsupported on this platform; writes skip the capacity check.
func (s *Store) FreeSpace() (uint64, error) {
	return 0, errUnsupported
}
