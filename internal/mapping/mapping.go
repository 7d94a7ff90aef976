// Package mapping provides a thread-safe, memory-mapped writable file used
// by the multi-segment download coordinator to let disjoint segment workers
// write into non-overlapping byte windows of the same destination file
// without a cross-segment lock.
package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/netreq/internal/errs"
)

// File is a pre-sized file whose contents are addressable as a contiguous
// byte buffer. All public mutators except WriteUnsafe hold an internal
// mutex; callers that have already partitioned the address space (e.g. the
// multi-segment coordinator handing each worker a disjoint range) use
// WriteUnsafe to avoid contention.
type File struct {
	path string
	size int64

	mu       sync.Mutex
	data     []byte
	osFile   *os.File
	lastErr  string
	isOpen   bool
}

// Open creates or truncates the file at path, extends it to size bytes, and
// maps it read/write.
func Open(path string, size int64) (*File, error) {
	if size <= 0 {
		return nil, errs.ErrInvalidMappingSize
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mapping: create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mapping: open: %w", err)
	}
	mf := &File{path: path, size: size, osFile: f}
	if err := preallocate(f, size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("mapping: preallocate: %w", err)
	}
	data, err := mmap(f, size)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("mapping: mmap: %w", err)
	}
	mf.data = data
	mf.isOpen = true
	log.Debug().Str("op", "mapping").Str("path", path).Int64("size", size).Msg("opened memory mapped file")
	return mf, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Size returns the mapped size in bytes.
func (f *File) Size() int64 { return f.size }

// LastError returns the last error message recorded against this mapping.
func (f *File) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Write clamps the write to the mapped window [0, size) and copies p into it
// while holding the mapping's mutex.
func (f *File) Write(offset int64, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(offset, p)
}

// WriteUnsafe performs the same clamped write as Write but skips internal
// locking. Only safe when the caller has already partitioned [0, size) into
// disjoint ranges and only ever writes within its own range (the multi-
// segment coordinator's contract with its segment workers).
func (f *File) WriteUnsafe(offset int64, p []byte) (int, error) {
	return f.writeLocked(offset, p)
}

func (f *File) writeLocked(offset int64, p []byte) (int, error) {
	if !f.isOpen {
		return 0, fmt.Errorf("mapping: write after close")
	}
	if offset < 0 || offset >= f.size {
		return 0, fmt.Errorf("mapping: offset %d out of range [0,%d)", offset, f.size)
	}
	end := offset + int64(len(p))
	if end > f.size {
		end = f.size
	}
	n := copy(f.data[offset:end], p)
	return n, nil
}

// Read copies up to len(p) bytes starting at offset into p.
func (f *File) Read(offset int64, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return 0, fmt.Errorf("mapping: read after close")
	}
	if offset < 0 || offset >= f.size {
		return 0, fmt.Errorf("mapping: offset %d out of range [0,%d)", offset, f.size)
	}
	end := offset + int64(len(p))
	if end > f.size {
		end = f.size
	}
	n := copy(p, f.data[offset:end])
	return n, nil
}

// Flush triggers an OS-level write-back of the mapped pages to disk.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return nil
	}
	if err := msync(f.data); err != nil {
		f.lastErr = err.Error()
		return fmt.Errorf("mapping: flush: %w", err)
	}
	return nil
}

// Close unmaps the file, closes the descriptor, and clears state. Safe to
// call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return nil
	}
	var err error
	if uerr := munmap(f.data); uerr != nil {
		err = uerr
	}
	f.data = nil
	if cerr := f.osFile.Close(); cerr != nil && err == nil {
		err = cerr
	}
	f.isOpen = false
	if err != nil {
		f.lastErr = err.Error()
		return fmt.Errorf("mapping: close: %w", err)
	}
	return nil
}
