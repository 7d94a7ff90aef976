package netreq

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/tanq16/netreq/internal/errs"
)

// Kind selects which executor variant drives a Context.
type Kind int

const (
	Get Kind = iota
	Post
	Put
	Delete
	Head
	Upload
	Download
	MTDownload
)

func (k Kind) String() string {
	switch k {
	case Get:
		return "GET"
	case Post:
		return "POST"
	case Put:
		return "PUT"
	case Delete:
		return "DELETE"
	case Head:
		return "HEAD"
	case Upload:
		return "UPLOAD"
	case Download:
		return "DOWNLOAD"
	case MTDownload:
		return "MTDOWNLOAD"
	default:
		return "UNKNOWN"
	}
}

// Behavior groups the per-request knobs that aren't specific to any one Kind.
type Behavior struct {
	ShowProgress    bool
	RetryOnFailed   bool // reserved, not yet wired
	MaxRedirects    int
	TransferTimeout time.Duration
}

func defaultBehavior() Behavior {
	return Behavior{
		MaxRedirects:    3,
		TransferTimeout: 30 * time.Second,
	}
}

// DownloadConfig configures Download and MTDownload requests.
type DownloadConfig struct {
	SaveFileName string
	SaveDir      string // required
	Overwrite    bool
	ThreadCount  int // 0 => auto (CPU cores); else clamped to >=2 for the MT path
}

func (c *DownloadConfig) resolvedThreadCount() int {
	if c.ThreadCount <= 0 {
		n := runtime.NumCPU()
		if n < 2 {
			n = 2
		}
		return n
	}
	if c.ThreadCount < 2 {
		return 2
	}
	return c.ThreadCount
}

// UploadConfig configures Upload requests. Exactly one of FilePath or
// InlineBytes should be set; Files/KVPairs apply only when UseFormData is
// true and multipart assembly is required.
type UploadConfig struct {
	FilePath     string
	InlineBytes  []byte
	Files        []UploadFile
	KVPairs      map[string]string
	UseFormData  bool
	UsePutMethod bool
}

// UploadFile is one multipart file part.
type UploadFile struct {
	FieldName string
	FileName  string
	FilePath  string
}

// Context describes one request. Validate (run on Submit) fills in defaulted
// Behavior fields, and the HTTP executors overwrite URL with the URL reached
// after following redirects; no other field is changed after submission.
type Context struct {
	Kind Kind
	URL  string

	Headers *Headers
	Cookies []*http.Cookie

	Body string

	Behavior Behavior

	DownloadConfig *DownloadConfig
	UploadConfig   *UploadConfig

	UserContext any

	// TLSConfig overrides the library's default insecure-permissive TLS
	// posture when set.
	TLSConfig *tls.Config
}

// NewContext returns a Context with defaulted Behavior and an empty header
// set, ready for the caller to fill in Kind/URL/etc.
func NewContext(kind Kind, rawURL string) *Context {
	return &Context{
		Kind:     kind,
		URL:      rawURL,
		Headers:  NewHeaders(),
		Behavior: defaultBehavior(),
	}
}

// Validate checks a Context's invariants before it is accepted by
// Submit/SubmitBatch/Send.
func (c *Context) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", errs.ErrInvalidURL, c.URL)
	}
	scheme := u.Scheme
	switch scheme {
	case "http", "https":
	case "ftp":
		switch c.Kind {
		case Post, Delete, Head:
			return fmt.Errorf("%w: %s over ftp", errs.ErrFTPMethodForbidden, c.Kind)
		}
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedScheme, scheme)
	}

	switch c.Kind {
	case Upload:
		if c.UploadConfig == nil {
			return errs.ErrMissingUploadConfig
		}
	case Download, MTDownload:
		if c.DownloadConfig == nil || c.DownloadConfig.SaveDir == "" {
			return errs.ErrMissingDownloadConfig
		}
	case Get, Post, Put, Delete, Head:
		// no extra config required
	default:
		return fmt.Errorf("%w: %v", errs.ErrUnsupportedKind, c.Kind)
	}
	if c.Behavior.MaxRedirects == 0 {
		c.Behavior.MaxRedirects = 3
	}
	if c.Behavior.TransferTimeout == 0 {
		c.Behavior.TransferTimeout = 30 * time.Second
	}
	return nil
}
