package netreq

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tanq16/netreq/internal/errs"
	"github.com/tanq16/netreq/internal/httpclient"
)

// requestBuilder produces a fresh *http.Request for the given URL. It's
// called once per hop so POST/PUT bodies can be re-attached (io.Reader
// bodies aren't reusable across attempts).
type requestBuilder func(rawURL string) (*http.Request, error)

// followRedirects issues build(url) and follows 301/302 responses up to
// maxRedirects hops, reusing the same method and body each hop. onHop is invoked
// before every redirect (including the first request) with the URL about
// to be requested; Download/MTDownload use it to discard a partially
// written temp file before reissuing.
func followRedirects(reqCtx context.Context, client *http.Client, userAgent string, build requestBuilder, startURL string, maxRedirects int, onHop func(nextURL string)) (*http.Response, string, error) {
	url := startURL
	for hop := 0; ; hop++ {
		if onHop != nil {
			onHop(url)
		}
		req, err := build(url)
		if err != nil {
			return nil, url, err
		}
		req = req.WithContext(reqCtx)
		httpclient.ApplyDefaultHeaders(req, userAgent)
		resp, err := client.Do(req)
		if err != nil {
			return nil, url, err
		}
		if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return nil, url, fmt.Errorf("redirect response missing Location header")
			}
			nextURL, err := resolveRedirect(url, location)
			if err != nil {
				return nil, url, err
			}
			if hop >= maxRedirects {
				return nil, url, fmt.Errorf("%w: stopped after %d hops at %s", errs.ErrRedirectBudget, maxRedirects, nextURL)
			}
			url = nextURL
			continue
		}
		return resp, url, nil
	}
}

func resolveRedirect(base, location string) (string, error) {
	baseURL, err := parseURLStrict(base)
	if err != nil {
		return "", err
	}
	ref, err := parseURLStrict(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
