//go:build darwin

package mapping

import "os"

// preallocate uses ftruncate; darwin's F_PREALLOCATE fcntl would avoid the
// sparse file but ftruncate is sufficient to give mmap a correctly sized
// backing file.
func preallocate(f *os.File, size int64) error {
	return f.Truncate(size)
}
