package netreq

import "net/url"

func parseURLStrict(raw string) (*url.URL, error) {
	return url.Parse(raw)
}
