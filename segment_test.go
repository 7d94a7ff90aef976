package netreq

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanq16/netreq/internal/mapping"
)

func TestSegmentWorkerWritesItsRangeOnPartialContent(t *testing.T) {
	content := []byte("0123456789")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var start, end int
		_, err := fmt.Sscanf(strings.TrimPrefix(r.Header.Get("Range"), "bytes="), "%d-%d", &start, &end)
		require.NoError(t, err)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start : end+1])
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.bin")
	file, err := mapping.Open(path, int64(len(content)))
	require.NoError(t, err)
	defer file.Close()

	w := newSegmentWorker(1, 5, 9, srv.URL, "", 3, noRedirectClient(srv), file)

	outcomes := make(chan segmentOutcome, 1)
	w.run(context.Background(), func(int, int64, int64) {}, func(o segmentOutcome) { outcomes <- o })
	o := <-outcomes
	require.True(t, o.ok, o.err)

	require.NoError(t, file.Flush())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "56789", string(got[5:10]))
}

func TestSegmentWorkerRejectsFullContentWhenRangeIgnored(t *testing.T) {
	content := []byte("0123456789")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server ignores the Range header entirely and sends 200 + the
		// whole body, as a misbehaving or Range-unaware server might.
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.bin")
	file, err := mapping.Open(path, int64(len(content)))
	require.NoError(t, err)
	defer file.Close()

	w := newSegmentWorker(1, 5, 9, srv.URL, "", 3, noRedirectClient(srv), file)

	outcomes := make(chan segmentOutcome, 1)
	w.run(context.Background(), func(int, int64, int64) {}, func(o segmentOutcome) { outcomes <- o })
	o := <-outcomes
	require.False(t, o.ok, "a 200 response to a ranged request must not be treated as success")
}
