// Package ftpclient adapts github.com/secsy/goftp to the subset of
// operations the request executor needs: GET maps to retrieval, PUT maps to
// upload; POST/DELETE/HEAD are rejected before a connection is even opened.
package ftpclient

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/secsy/goftp"
)

// Config mirrors the pieces of an FTP URL and behavior options the
// executor already has on hand.
type Config struct {
	Timeout time.Duration
}

// Dial opens a goftp.Client scoped to rawURL's host, extracting any
// userinfo for authentication.
func Dial(rawURL string, cfg Config) (*goftp.Client, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("ftpclient: parse URL: %w", err)
	}
	gcfg := goftp.Config{
		ConnectionsPerHost: 1,
		Timeout:            cfg.Timeout,
	}
	if u.User != nil {
		gcfg.User = u.User.Username()
		gcfg.Password, _ = u.User.Password()
	}
	client, err := goftp.DialConfig(gcfg, u.Host)
	if err != nil {
		return nil, "", fmt.Errorf("ftpclient: dial: %w", err)
	}
	return client, u.Path, nil
}

// Retrieve streams path from the server into w, returning bytes written.
func Retrieve(client *goftp.Client, path string, w io.Writer) (int64, error) {
	n := &countingWriter{w: w}
	if err := client.Retrieve(path, n); err != nil {
		return n.n, fmt.Errorf("ftpclient: retrieve: %w", err)
	}
	return n.n, nil
}

// Store uploads r to path on the server.
func Store(client *goftp.Client, path string, r io.Reader) error {
	if err := client.Store(path, r); err != nil {
		return fmt.Errorf("ftpclient: store: %w", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
