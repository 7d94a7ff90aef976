// Package httpclient builds the *http.Client shared by every HTTP request
// executor: connection pooling, optional proxy, and the library's default
// TLS posture.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

// Config configures one *http.Client. HighThreadMode (set by the executors
// when a download resolves to more than 5 threads) switches on the
// high-throughput socket tuning the teacher reserves for many-connection
// downloads.
type Config struct {
	Timeout        time.Duration
	KeepAliveTimeout time.Duration
	ProxyURL       string
	ProxyUsername  string
	ProxyPassword  string
	HighThreadMode bool
	TLSConfig      *tls.Config // nil selects DefaultTLSConfig()
}

// DefaultTLSConfig forces TLSv1.2-or-later with peer verification disabled.
// Consumers who need stricter verification supply their own *tls.Config via
// Config.TLSConfig.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
	}
}

// New builds an *http.Client tuned per cfg. Timeout enforces the caller's
// transfer timeout as a hard ceiling on the whole round trip.
func New(cfg Config) (*http.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.KeepAliveTimeout <= 0 {
		cfg.KeepAliveTimeout = 60 * time.Second
	}
	tlsConfig := cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = DefaultTLSConfig()
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KeepAliveTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     0,
		TLSClientConfig:     tlsConfig,
	}
	if cfg.HighThreadMode {
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control: func(_, _ string, c syscall.RawConn) error {
				return c.Control(func(fd uintptr) {
					setSocketOptions(fd)
				})
			},
		}).DialContext
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		if cfg.ProxyUsername != "" {
			if cfg.ProxyPassword != "" {
				proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
			} else {
				proxyURL.User = url.User(cfg.ProxyUsername)
			}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		// Redirects are driven manually by followRedirects so the
		// library's redirect budget and per-hop callbacks actually see
		// every 3xx instead of the stdlib client swallowing them.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// ApplyDefaultHeaders injects the library's default headers only where the
// caller hasn't already set them.
func ApplyDefaultHeaders(req *http.Request, userAgent string) {
	if req.Header.Get("User-Agent") == "" {
		if userAgent == "" {
			userAgent = "netreq/1.0"
		}
		req.Header.Set("User-Agent", userAgent)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip,deflate")
	}
	if req.Header.Get("Connection") == "" {
		req.Header.Set("Connection", "keep-alive")
	}
}
