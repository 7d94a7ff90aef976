package httpclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	client, err := New(Config{})
	require.NoError(t, err)
	require.Equal(t, 30e9, float64(client.Timeout))
}

func TestApplyDefaultHeadersDoesNotOverride(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)
	req.Header.Set("User-Agent", "custom-agent")
	ApplyDefaultHeaders(req, "ignored")
	require.Equal(t, "custom-agent", req.Header.Get("User-Agent"))
	require.Equal(t, "gzip,deflate", req.Header.Get("Accept-Encoding"))
	require.Equal(t, "keep-alive", req.Header.Get("Connection"))
}

func TestApplyDefaultHeadersFillsUserAgent(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)
	ApplyDefaultHeaders(req, "")
	require.NotEmpty(t, req.Header.Get("User-Agent"))
}
