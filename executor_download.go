package netreq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// downloadExecutor streams one response body straight to a freshly created
// target file. Any failure removes the partial file.
type downloadExecutor struct {
	*executorBase
	meta       TaskMeta
	targetPath string
}

func newDownloadExecutor(ctx *Context, meta TaskMeta) (*downloadExecutor, error) {
	base, err := newExecutorBase(ctx)
	if err != nil {
		return nil, err
	}
	return &downloadExecutor{executorBase: base, meta: meta}, nil
}

func (e *downloadExecutor) Start() {
	reqCtx, cancel := context.WithCancel(context.Background())
	e.onAbort(cancel)
	go e.run(reqCtx)
}

func (e *downloadExecutor) run(reqCtx context.Context) {
	target, err := resolveOutputPath(e.ctx.URL, e.ctx.DownloadConfig, nil)
	if err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.targetPath = target

	build := func(rawURL string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}
	onHop := func(string) { e.removePartial() }
	resp, finalURL, err := followRedirects(reqCtx, e.client, e.ctx.Headers.Get("User-Agent"), build, e.ctx.URL, e.ctx.Behavior.MaxRedirects, onHop)
	if err != nil {
		e.removePartial()
		if reqCtx.Err() != nil {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.ctx.URL = finalURL
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.removePartial()
		e.emitDone(failedResult(e.meta, fmt.Errorf("server returned status %d", resp.StatusCode)))
		return
	}

	total := resp.ContentLength
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	out, err := os.Create(target)
	if err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	defer out.Close()

	written, err := copyWithProgress(reqCtx, out, resp.Body, total, e.emitProgress)
	if err != nil {
		out.Close()
		e.removePartial()
		if reqCtx.Err() != nil {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/download").Str("url", e.ctx.URL).Err(err).Msg("download failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}

	e.emitDone(Result{
		Success: true,
		Body:    target,
		Headers: headersFromHTTP(resp.Header),
		Task:    e.meta,
		Performance: Performance{
			BytesReceived: written,
		},
	})
}

func (e *downloadExecutor) removePartial() {
	if e.targetPath != "" {
		os.Remove(e.targetPath)
	}
}

// copyWithProgress copies src into dst, emitting throttled progress via
// emit(received,total) and aborting promptly if reqCtx is canceled.
func copyWithProgress(reqCtx context.Context, dst io.Writer, src io.Reader, total int64, emit func(received, total int64)) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		select {
		case <-reqCtx.Done():
			return written, reqCtx.Err()
		default:
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			emit(written, total)
		}
		if rerr != nil {
			if rerr == io.EOF {
				emit(written, total)
				return written, nil
			}
			return written, rerr
		}
	}
}
