package netreq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
)

// uploadExecutor streams a file body or a multipart form, selecting PUT vs
// POST per UsePutMethod.
type uploadExecutor struct {
	*executorBase
	meta TaskMeta
}

func newUploadExecutor(ctx *Context, meta TaskMeta) (*uploadExecutor, error) {
	base, err := newExecutorBase(ctx)
	if err != nil {
		return nil, err
	}
	return &uploadExecutor{executorBase: base, meta: meta}, nil
}

func (e *uploadExecutor) Start() {
	reqCtx, cancel := context.WithCancel(context.Background())
	e.onAbort(cancel)
	go e.run(reqCtx)
}

func (e *uploadExecutor) method() string {
	if e.ctx.UploadConfig.UsePutMethod {
		return http.MethodPut
	}
	return http.MethodPost
}

func (e *uploadExecutor) run(reqCtx context.Context) {
	cfg := e.ctx.UploadConfig
	var body io.Reader
	var contentType string
	var bytesSent int64

	switch {
	case cfg.UseFormData && len(cfg.Files) > 0:
		buf, ct, err := buildMultipartBody(cfg.Files, cfg.KVPairs)
		if err != nil {
			e.emitDone(failedResult(e.meta, err))
			return
		}
		body = buf
		contentType = ct
		bytesSent = int64(buf.Len())
	case cfg.FilePath != "":
		f, err := os.Open(cfg.FilePath)
		if err != nil {
			e.emitDone(failedResult(e.meta, err))
			return
		}
		defer f.Close()
		if info, serr := f.Stat(); serr == nil {
			bytesSent = info.Size()
		}
		body = f
		contentType = mimeTypeFor(cfg.FilePath)
	default:
		body = bytes.NewReader(cfg.InlineBytes)
		bytesSent = int64(len(cfg.InlineBytes))
		contentType = "application/octet-stream"
	}

	build := func(rawURL string) (*http.Request, error) {
		req, err := http.NewRequest(e.method(), rawURL, body)
		if err != nil {
			return nil, err
		}
		e.ctx.Headers.Range(func(k, v string) { req.Header.Set(k, v) })
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", contentType)
		}
		if bytesSent > 0 {
			req.ContentLength = bytesSent
		}
		return req, nil
	}

	resp, finalURL, err := followRedirects(reqCtx, e.client, e.ctx.Headers.Get("User-Agent"), build, e.ctx.URL, e.ctx.Behavior.MaxRedirects, nil)
	if err != nil {
		if reqCtx.Err() != nil {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/upload").Str("url", e.ctx.URL).Err(err).Msg("upload failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.ctx.URL = finalURL
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.emitDone(failedResult(e.meta, fmt.Errorf("server returned status %d", resp.StatusCode)))
		return
	}
	e.emitProgress(bytesSent, bytesSent)
	e.emitDone(Result{
		Success: true,
		Body:    string(respBody),
		Headers: headersFromHTTP(resp.Header),
		Task:    e.meta,
		Performance: Performance{
			BytesSent: bytesSent,
		},
	})
}
