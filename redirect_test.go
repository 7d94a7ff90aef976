package netreq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// noRedirectClient mirrors internal/httpclient.New's CheckRedirect override:
// followRedirects needs to see every 3xx itself, not have the stdlib client
// swallow them.
func noRedirectClient(srv *httptest.Server) *http.Client {
	c := srv.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

func TestFollowRedirectsReachesFinalResponse(t *testing.T) {
	var finalHits int
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		finalHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	hop1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer hop1.Close()

	build := func(rawURL string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}
	resp, finalURL, err := followRedirects(context.Background(), noRedirectClient(final), "", build, hop1.URL, 3, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, final.URL, finalURL)
	require.Equal(t, 1, finalHits)
}

func TestFollowRedirectsEnforcesBudget(t *testing.T) {
	var mux http.HandlerFunc
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { mux(w, r) }))
	defer srv.Close()
	mux = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}

	build := func(rawURL string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}
	_, _, err := followRedirects(context.Background(), noRedirectClient(srv), "", build, srv.URL+"/a", 2, nil)
	require.Error(t, err)
}

func TestFollowRedirectsInvokesOnHopForEveryAttempt(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()
	hop1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusMovedPermanently)
	}))
	defer hop1.Close()

	var hops []string
	build := func(rawURL string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}
	resp, _, err := followRedirects(context.Background(), noRedirectClient(final), "", build, hop1.URL, 3, func(u string) { hops = append(hops, u) })
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, []string{hop1.URL, final.URL}, hops)
}
