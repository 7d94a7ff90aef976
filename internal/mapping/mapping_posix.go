//go:build linux || darwin

package mapping

import (
	"os"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}

func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}
