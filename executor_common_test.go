package netreq

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForResult(t *testing.T, done <-chan Result) Result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for executor result")
		return Result{}
	}
}

func TestCommonExecutorGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	ctx := NewContext(Get, srv.URL)
	exec, err := newCommonExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.True(t, res.Success)
	require.Equal(t, "hello", res.Body)
	require.Equal(t, "yes", res.Headers.Get("X-Test"))
}

func TestCommonExecutorPostFormURLEncoded(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ctx := NewContext(Post, srv.URL)
	ctx.Body = "a=1&b=2"
	exec, err := newCommonExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.True(t, res.Success)
	require.Equal(t, "a=1&b=2", gotBody)
	require.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestCommonExecutorNonSuccessStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx := NewContext(Get, srv.URL)
	exec, err := newCommonExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()

	res := waitForResult(t, exec.Done())
	require.False(t, res.Success)
	require.NotEmpty(t, res.ErrorMessage)
}

func TestCommonExecutorAbortCancelsInFlightRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx := NewContext(Get, srv.URL)
	exec, err := newCommonExecutor(ctx, TaskMeta{ID: 1})
	require.NoError(t, err)
	exec.Start()
	exec.Abort()

	res := waitForResult(t, exec.Done())
	require.True(t, res.Cancelled)
	require.False(t, res.Success)
}
