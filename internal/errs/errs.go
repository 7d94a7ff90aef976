// Package errs collects the sentinel errors shared across netreq's request
// state machine, multi-segment engine, and manager so callers can match on
// them with errors.Is.
package errs

import "errors"

var (
	// Validation
	ErrInvalidURL          = errors.New("invalid URL")
	ErrUnsupportedScheme   = errors.New("unsupported scheme")
	ErrMissingSaveDir      = errors.New("save directory is required")
	ErrMissingUploadConfig = errors.New("upload config is required for Upload requests")
	ErrMissingDownloadConfig = errors.New("download config is required for Download/MTDownload requests")
	ErrFTPMethodForbidden  = errors.New("method not supported over FTP")
	ErrUnsupportedKind     = errors.New("unsupported request kind")

	// Filesystem
	ErrDestinationExists = errors.New("destination exists")
	ErrSuffixExhausted   = errors.New("no available numbered suffix for output file")

	// Mapping
	ErrInvalidMappingSize = errors.New("mapping size must be positive")

	// HTTP
	ErrMissingContentLength = errors.New("missing Content-Length header")
	ErrRedirectBudget       = errors.New("redirect budget exceeded")
	ErrNonSuccessStatus     = errors.New("non-2xx HTTP status")

	// Segment / coordinator
	ErrSegmentFailed = errors.New("segment download failed")

	// Cancellation
	ErrCancelled = errors.New("operation canceled")
)
