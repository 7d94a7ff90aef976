package mapping

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRejectsNonPositiveSize(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "f.bin"), 0)
	require.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, 16)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write(4, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = f.Read(4, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestWriteClampsToWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, 8)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write(4, []byte("abcdefgh"))
	require.NoError(t, err)
	require.Equal(t, 4, n) // only 4 bytes fit in [4,8)
}

func TestDisjointWriteUnsafeFromConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	size := int64(1024)
	f, err := Open(path, size)
	require.NoError(t, err)
	defer f.Close()

	n := 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		start := int64(i) * (size / int64(n))
		end := int64(i+1) * (size / int64(n))
		wg.Add(1)
		go func(start, end int64, id byte) {
			defer wg.Done()
			buf := make([]byte, end-start)
			for j := range buf {
				buf[j] = id
			}
			_, werr := f.WriteUnsafe(start, buf)
			require.NoError(t, werr)
		}(start, end, byte('A'+i))
	}
	wg.Wait()

	require.NoError(t, f.Flush())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, int(size))
	for i := 0; i < n; i++ {
		start := i * (int(size) / n)
		end := (i + 1) * (int(size) / n)
		for _, b := range got[start:end] {
			require.Equal(t, byte('A'+i), b)
		}
	}
}

func TestCloseIsIdempotentAndBlocksFurtherWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, 8)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Write(0, []byte("x"))
	require.Error(t, err)
}
