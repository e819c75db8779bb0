//go:build unix

package diskcache

import "golang.org/x/sys/unix"

// FreeSpace returns the number of bytes available to unprivileged users on
// the volume holding the store.
func (s *Store) FreeSpace() (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.dir, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
