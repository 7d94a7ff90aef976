package netreq

import (
	"net/http"
	"strings"
)

// Headers is a byte-string key/value map that behaves like HTTP headers:
// lookups are case-insensitive per HTTP convention, but insertion order is
// preserved for iteration and for the wire order callers see when they
// built the request (net/http's own header type sorts by canonical key on
// Write, which loses that ordering — this one doesn't).
type Headers struct {
	keys   []string
	values map[string]string // keyed by canonical lower-case form
	orig   map[string]string // canonical lower-case form -> original casing
}

// NewHeaders returns an empty, ready-to-use Headers.
func NewHeaders() *Headers {
	return &Headers{
		values: make(map[string]string),
		orig:   make(map[string]string),
	}
}

func canon(key string) string {
	return strings.ToLower(key)
}

// Set inserts or overwrites key's value. An overwrite keeps the key's
// original insertion position.
func (h *Headers) Set(key, value string) {
	c := canon(key)
	if _, exists := h.values[c]; !exists {
		h.keys = append(h.keys, c)
		h.orig[c] = key
	}
	h.values[c] = value
}

// Get returns key's value, matched case-insensitively.
func (h *Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	return h.values[canon(key)]
}

// Has reports whether key is present, matched case-insensitively.
func (h *Headers) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h.values[canon(key)]
	return ok
}

// Del removes key, matched case-insensitively.
func (h *Headers) Del(key string) {
	c := canon(key)
	if _, ok := h.values[c]; !ok {
		return
	}
	delete(h.values, c)
	delete(h.orig, c)
	for i, k := range h.keys {
		if k == c {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each header in insertion order, using the original
// casing the caller set.
func (h *Headers) Range(fn func(key, value string)) {
	if h == nil {
		return
	}
	for _, c := range h.keys {
		fn(h.orig[c], h.values[c])
	}
}

// Len returns the number of distinct headers.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// ToHTTPHeader converts to a net/http Header for use in building a request.
func (h *Headers) ToHTTPHeader() http.Header {
	out := make(http.Header, h.Len())
	h.Range(func(k, v string) {
		out.Set(k, v)
	})
	return out
}

// HeadersFromMap builds a Headers preserving the iteration order Go gives
// map ranges (undefined) — callers that need a specific wire order should
// build via NewHeaders+Set instead. This helper exists for convenience when
// order doesn't matter (e.g. a small number of caller-supplied overrides).
func HeadersFromMap(m map[string]string) *Headers {
	h := NewHeaders()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}
