package netreq

import (
	"fmt"
	"net/url"
)

// newExecutor selects the Executor implementation for ctx by URL scheme and
// Kind.
func newExecutor(ctx *Context, meta TaskMeta) (Executor, error) {
	u, err := url.Parse(ctx.URL)
	if err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	if u.Scheme == "ftp" {
		return newFTPExecutor(ctx, meta)
	}
	switch ctx.Kind {
	case MTDownload:
		return newCoordinatorExecutor(ctx, meta)
	case Download:
		return newDownloadExecutor(ctx, meta)
	case Upload:
		return newUploadExecutor(ctx, meta)
	case Get, Post, Put, Delete, Head:
		return newCommonExecutor(ctx, meta)
	default:
		return nil, fmt.Errorf("factory: unsupported kind %v", ctx.Kind)
	}
}
