package netreq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadersSetGetCaseInsensitive(t *testing.T) {
	h := NewHeaders()
	h.Set("Content-Type", "application/json")
	require.Equal(t, "application/json", h.Get("content-type"))
	require.True(t, h.Has("CONTENT-TYPE"))
}

func TestHeadersPreservesInsertionOrder(t *testing.T) {
	h := NewHeaders()
	h.Set("Z", "1")
	h.Set("A", "2")
	h.Set("M", "3")

	var order []string
	h.Range(func(k, v string) { order = append(order, k) })
	require.Equal(t, []string{"Z", "A", "M"}, order)
}

func TestHeadersOverwriteKeepsPosition(t *testing.T) {
	h := NewHeaders()
	h.Set("A", "1")
	h.Set("B", "2")
	h.Set("A", "3")

	var order []string
	h.Range(func(k, v string) { order = append(order, k) })
	require.Equal(t, []string{"A", "B"}, order)
	require.Equal(t, "3", h.Get("A"))
}

func TestHeadersDel(t *testing.T) {
	h := NewHeaders()
	h.Set("A", "1")
	h.Set("B", "2")
	h.Del("a")
	require.False(t, h.Has("A"))
	require.Equal(t, 1, h.Len())
}

func TestHeadersNilSafe(t *testing.T) {
	var h *Headers
	require.Equal(t, "", h.Get("x"))
	require.False(t, h.Has("x"))
	require.Equal(t, 0, h.Len())
}
