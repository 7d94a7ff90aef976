//go:build linux

package mapping

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves the blocks up front so the mapping never faults into
// a hole; ftruncate is the portable fallback for filesystems that reject
// fallocate (tmpfs, some network mounts).
func preallocate(f *os.File, size int64) error {
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
		return f.Truncate(size)
	}
	return nil
}
