package netreq

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/secsy/goftp"
	"github.com/tanq16/netreq/internal/ftpclient"
)

// ftpExecutor drives Get/Download (retrieve) and Upload/Put (store) against
// an ftp:// URL via internal/ftpclient. Redirects don't exist on FTP, so this
// variant skips followRedirects entirely.
type ftpExecutor struct {
	*executorBase
	meta       TaskMeta
	targetPath string
}

func newFTPExecutor(ctx *Context, meta TaskMeta) (*ftpExecutor, error) {
	base, err := newExecutorBase(ctx)
	if err != nil {
		return nil, err
	}
	return &ftpExecutor{executorBase: base, meta: meta}, nil
}

func (e *ftpExecutor) Start() {
	go e.run()
}

func (e *ftpExecutor) run() {
	client, remotePath, err := ftpclient.Dial(e.ctx.URL, ftpclient.Config{Timeout: e.ctx.Behavior.TransferTimeout})
	if err != nil {
		log.Error().Str("op", "executor/ftp").Str("url", e.ctx.URL).Err(err).Msg("dial failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}
	defer client.Close()
	e.onAbort(func() { client.Close() })

	switch e.ctx.Kind {
	case Get, Download:
		e.runRetrieve(client, remotePath)
	case Upload, Put:
		e.runStore(client, remotePath)
	default:
		e.emitDone(failedResult(e.meta, fmt.Errorf("ftp: unsupported kind %s", e.ctx.Kind)))
	}
}

func (e *ftpExecutor) runRetrieve(client *goftp.Client, remotePath string) {
	if e.ctx.DownloadConfig == nil || e.ctx.DownloadConfig.SaveDir == "" {
		e.emitDone(failedResult(e.meta, fmt.Errorf("ftp: download requires a save directory")))
		return
	}
	target, err := resolveOutputPath(e.ctx.URL, e.ctx.DownloadConfig, nil)
	if err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.targetPath = target

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

	written, err := ftpclient.Retrieve(client, remotePath, out)
	if err != nil {
		out.Close()
		os.Remove(target)
		if e.isAborted() {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/ftp").Str("url", e.ctx.URL).Err(err).Msg("retrieve failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.emitProgress(written, written)
	e.emitDone(Result{
		Success: true,
		Body:    target,
		Headers: NewHeaders(),
		Task:    e.meta,
		Performance: Performance{
			BytesReceived: written,
		},
	})
}

func (e *ftpExecutor) runStore(client *goftp.Client, remotePath string) {
	var src *os.File
	var size int64
	var err error
	if e.ctx.UploadConfig != nil && e.ctx.UploadConfig.FilePath != "" {
		src, err = os.Open(e.ctx.UploadConfig.FilePath)
		if err != nil {
			e.emitDone(failedResult(e.meta, err))
			return
		}
		defer src.Close()
		if info, serr := src.Stat(); serr == nil {
			size = info.Size()
		}
	} else {
		e.emitDone(failedResult(e.meta, fmt.Errorf("ftp: upload requires UploadConfig.FilePath")))
		return
	}

	if err := ftpclient.Store(client, remotePath, src); err != nil {
		if e.isAborted() {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/ftp").Str("url", e.ctx.URL).Err(err).Msg("store failed")
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.emitProgress(size, size)
	e.emitDone(Result{
		Success: true,
		Body:    remotePath,
		Headers: NewHeaders(),
		Task:    e.meta,
		Performance: Performance{
			BytesSent: size,
		},
	})
}
