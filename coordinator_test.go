package netreq

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func rangeServingHandler(t *testing.T, content []byte) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.WriteHeader(http.StatusOK)
			return
		}
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Write(content)
			return
		}
		var start, end int
		_, err := fmt.Sscanf(strings.TrimPrefix(rangeHeader, "bytes="), "%d-%d", &start, &end)
		require.NoError(t, err)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start : end+1])
	}
}

func TestCoordinatorExecutorSplitsAndReassemblesFile(t *testing.T) {
	content := make([]byte, 97) // deliberately not evenly divisible by thread count
	for i := range content {
		content[i] = byte(i % 256)
	}
	srv := httptest.NewServer(rangeServingHandler(t, content))
	defer srv.Close()

	dir := t.TempDir()
	ctx := NewContext(MTDownload, srv.URL)
	ctx.DownloadConfig = &DownloadConfig{SaveDir: dir, SaveFileName: "out.bin", ThreadCount: 4}

	exec, err := newCoordinatorExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.True(t, res.Success, res.ErrorMessage)

	got, err := os.ReadFile(filepath.Join(dir, "out.bin"))
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCoordinatorExecutorRejectsMissingContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	ctx := NewContext(MTDownload, srv.URL)
	ctx.DownloadConfig = &DownloadConfig{SaveDir: dir, ThreadCount: 2}

	exec, err := newCoordinatorExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.False(t, res.Success)
}

func TestCoordinatorExecutorCleansUpTempOnSegmentFailure(t *testing.T) {
	content := make([]byte, 64)
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		hits++
		thisHit := hits
		mu.Unlock()
		if thisHit == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		rangeHeader := r.Header.Get("Range")
		var start, end int
		fmt.Sscanf(strings.TrimPrefix(rangeHeader, "bytes="), "%d-%d", &start, &end)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start : end+1])
	}))
	defer srv.Close()

	dir := t.TempDir()
	ctx := NewContext(MTDownload, srv.URL)
	ctx.DownloadConfig = &DownloadConfig{SaveDir: dir, SaveFileName: "out.bin", ThreadCount: 2}

	exec, err := newCoordinatorExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.False(t, res.Success)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "temp file should be removed after failure")
}

func TestCoordinatorExecutorNumbersExistingDestinationWithoutOverwrite(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv := httptest.NewServer(rangeServingHandler(t, content))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.bin"), []byte("existing"), 0o644))

	ctx := NewContext(MTDownload, srv.URL)
	ctx.DownloadConfig = &DownloadConfig{SaveDir: dir, SaveFileName: "out.bin", ThreadCount: 2, Overwrite: false}

	exec, err := newCoordinatorExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.True(t, res.Success)

	got, err := os.ReadFile(filepath.Join(dir, "out_1.bin"))
	require.NoError(t, err)
	require.Equal(t, content, got)
}
