package netreq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	netmime "github.com/tanq16/netreq/internal/mime"
)

// commonExecutor drives Get/Post/Put/Delete/Head over http(s).
type commonExecutor struct {
	*executorBase
	meta   TaskMeta
	cancel context.CancelFunc
}

func newCommonExecutor(ctx *Context, meta TaskMeta) (*commonExecutor, error) {
	base, err := newExecutorBase(ctx)
	if err != nil {
		return nil, err
	}
	return &commonExecutor{executorBase: base, meta: meta}, nil
}

func (e *commonExecutor) methodName() string {
	switch e.ctx.Kind {
	case Get:
		return http.MethodGet
	case Post:
		return http.MethodPost
	case Put:
		return http.MethodPut
	case Delete:
		return http.MethodDelete
	case Head:
		return http.MethodHead
	default:
		return http.MethodGet
	}
}

func (e *commonExecutor) Start() {
	reqCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.onAbort(cancel)
	go e.run(reqCtx)
}

func (e *commonExecutor) run(reqCtx context.Context) {
	method := e.methodName()
	build := func(rawURL string) (*http.Request, error) {
		return e.buildRequest(rawURL, method)
	}
	resp, finalURL, err := followRedirects(reqCtx, e.client, e.ctx.Headers.Get("User-Agent"), build, e.ctx.URL, e.ctx.Behavior.MaxRedirects, nil)
	if err != nil {
		if reqCtx.Err() != nil {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/common").Str("url", e.ctx.URL).Err(err).Msg("request failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.ctx.URL = finalURL
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.emitDone(failedResult(e.meta, fmt.Errorf("reading response body: %w", err)))
		return
	}
	e.emitProgress(int64(len(body)), int64(len(body)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.emitDone(failedResult(e.meta, fmt.Errorf("server returned status %d", resp.StatusCode)))
		return
	}

	e.emitDone(Result{
		Success: true,
		Body:    string(body),
		Headers: headersFromHTTP(resp.Header),
		Task:    e.meta,
		Performance: Performance{
			BytesReceived: int64(len(body)),
			BytesSent:     int64(len(e.ctx.Body)),
		},
	})
}

func (e *commonExecutor) buildRequest(rawURL, method string) (*http.Request, error) {
	var bodyReader io.Reader
	contentType := ""
	if method == http.MethodPost || method == http.MethodPut {
		if isFormDataUpload(e.ctx) {
			buf, ct, err := buildMultipartBody(formFiles(e.ctx), formKVPairs(e.ctx))
			if err != nil {
				return nil, err
			}
			bodyReader = buf
			contentType = ct
		} else {
			bodyReader = strings.NewReader(e.ctx.Body)
		}
	}
	req, err := http.NewRequest(method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}
	e.ctx.Headers.Range(func(k, v string) { req.Header.Set(k, v) })
	for _, c := range e.ctx.Cookies {
		req.AddCookie(c)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	} else if method == http.MethodPost && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func isFormDataUpload(ctx *Context) bool {
	return ctx.UploadConfig != nil && ctx.UploadConfig.UseFormData && len(ctx.UploadConfig.Files) > 0
}

func formKVPairs(ctx *Context) map[string]string {
	if ctx.UploadConfig == nil {
		return nil
	}
	return ctx.UploadConfig.KVPairs
}

func formFiles(ctx *Context) []UploadFile {
	if ctx.UploadConfig == nil {
		return nil
	}
	return ctx.UploadConfig.Files
}

func headersFromHTTP(h http.Header) *Headers {
	out := NewHeaders()
	for k, vs := range h {
		if len(vs) > 0 {
			out.Set(k, vs[0])
		}
	}
	return out
}

// mimeTypeFor exposes the extension->MIME mapper to the multipart assembly
// helpers above.
func mimeTypeFor(filename string) string {
	return netmime.FromFilename(filename)
}
