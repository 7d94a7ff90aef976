package netreq

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/netreq/internal/errs"
	"github.com/tanq16/netreq/internal/mapping"
)

// coordinatorExecutor is the multi-segment download engine: it HEADs the
// target for a usable Content-Length, partitions [0,fileSize) into disjoint
// ranges, drives one segmentWorker per range against a shared memory-mapped
// temp file, and on full success atomically renames the temp file onto the
// resolved final path.
type coordinatorExecutor struct {
	*executorBase
	meta TaskMeta

	tempPath  string
	finalPath string

	mu                sync.Mutex
	workers           []*segmentWorker
	segmentBytes      []int64
	lastAggPercent    int
	lastAggEmit       time.Time
	segmentsSuccess   int
	segmentsFail      int
	finished          map[int]bool
	firstErr          error
	fileSize          int64
}

func newCoordinatorExecutor(ctx *Context, meta TaskMeta) (*coordinatorExecutor, error) {
	base, err := newExecutorBase(ctx)
	if err != nil {
		return nil, err
	}
	return &coordinatorExecutor{
		executorBase: base,
		meta:         meta,
		finished:     make(map[int]bool),
	}, nil
}

func (e *coordinatorExecutor) Start() {
	reqCtx, cancel := context.WithCancel(context.Background())
	e.onAbort(func() {
		cancel()
		e.mu.Lock()
		workers := e.workers
		e.mu.Unlock()
		for _, w := range workers {
			w.abort()
		}
	})
	go e.run(reqCtx)
}

func (e *coordinatorExecutor) run(reqCtx context.Context) {
	cfg := e.ctx.DownloadConfig
	if cfg == nil || cfg.SaveDir == "" {
		e.emitDone(failedResult(e.meta, fmt.Errorf("mtdownload: missing save directory")))
		return
	}
	n := cfg.resolvedThreadCount()

	headBuild := func(rawURL string) (*http.Request, error) {
		return http.NewRequest(http.MethodHead, rawURL, nil)
	}
	headResp, finalURL, err := followRedirects(reqCtx, e.client, e.ctx.Headers.Get("User-Agent"), headBuild, e.ctx.URL, e.ctx.Behavior.MaxRedirects, nil)
	if err != nil {
		e.emitDone(failedResult(e.meta, fmt.Errorf("mtdownload: HEAD failed: %w", err)))
		return
	}
	e.ctx.URL = finalURL
	headers := headersFromHTTP(headResp.Header)
	fileSize := headResp.ContentLength
	headResp.Body.Close()
	if fileSize <= 0 {
		e.emitDone(failedResult(e.meta, fmt.Errorf("mtdownload: server did not return a usable Content-Length")))
		return
	}
	e.fileSize = fileSize

	finalPath, err := resolveOutputPath(e.ctx.URL, cfg, nil)
	if err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.finalPath = finalPath
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}
	e.tempPath = filepath.Join(filepath.Dir(finalPath), fmt.Sprintf(".netreq-%s.tmp", uuid.NewString()))

	file, err := mapping.Open(e.tempPath, fileSize)
	if err != nil {
		e.emitDone(failedResult(e.meta, err))
		return
	}

	e.segmentBytes = make([]int64, n)
	e.lastAggPercent = -1

	outcomes := make(chan segmentOutcome, n)
	e.workers = make([]*segmentWorker, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		start := fileSize * int64(i) / int64(n)
		end := fileSize*int64(i+1)/int64(n) - 1
		if i == n-1 {
			end = fileSize - 1
		}
		w := newSegmentWorker(i, start, end, e.ctx.URL, e.ctx.Headers.Get("User-Agent"), e.ctx.Behavior.MaxRedirects, e.client, file)
		e.workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(reqCtx, e.onSegmentProgress, func(o segmentOutcome) { outcomes <- o })
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	startTime := time.Now()
	for o := range outcomes {
		e.mu.Lock()
		if e.finished[o.index] {
			e.mu.Unlock()
			continue
		}
		e.finished[o.index] = true
		if o.ok {
			e.segmentsSuccess++
		} else {
			e.segmentsFail++
			if e.firstErr == nil {
				e.firstErr = o.err
			}
		}
		success, fail := e.segmentsSuccess, e.segmentsFail
		e.mu.Unlock()

		if fail == 1 {
			for _, w := range e.workers {
				w.abort()
			}
		}
		if success == n || fail > 0 {
			break
		}
	}

	if e.firstErr != nil {
		file.Close()
		os.Remove(e.tempPath)
		if reqCtx.Err() != nil {
			e.emitDone(cancelledResult(e.meta, fmt.Sprintf("Operation canceled (id: %d)", e.meta.ID)))
			return
		}
		log.Error().Str("op", "executor/mtdownload").Str("url", e.ctx.URL).Err(e.firstErr).Msg("segment failed")
		e.emitDone(failedResult(e.meta, e.firstErr))
		return
	}

	if err := file.Flush(); err != nil {
		file.Close()
		os.Remove(e.tempPath)
		e.emitDone(failedResult(e.meta, err))
		return
	}
	if err := file.Close(); err != nil {
		os.Remove(e.tempPath)
		e.emitDone(failedResult(e.meta, err))
		return
	}

	if err := finalizeRename(e.tempPath, finalPath, cfg.Overwrite); err != nil {
		os.Remove(e.tempPath)
		e.emitDone(failedResult(e.meta, err))
		return
	}

	elapsed := time.Since(startTime).Seconds()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(fileSize) / (1024 * 1024) / elapsed
	}
	e.emitDone(Result{
		Success: true,
		Body:    fmt.Sprintf("took %.2f seconds, avg speed %.2f MB/s", elapsed, speed),
		Headers: headers,
		Task:    e.meta,
		Performance: Performance{
			BytesReceived: fileSize,
			DurationMs:    time.Since(startTime).Milliseconds(),
		},
	})
}

// onSegmentProgress records the segment's latest cumulative bytes and
// re-emits an aggregated download-progress event when the derived integer
// percent has advanced, gated to a 250ms floor.
func (e *coordinatorExecutor) onSegmentProgress(index int, received, total int64) {
	e.mu.Lock()
	if index >= 0 && index < len(e.segmentBytes) {
		e.segmentBytes[index] = received
	}
	var sum int64
	for _, b := range e.segmentBytes {
		sum += b
	}
	percent := -1
	if e.fileSize > 0 {
		percent = int(sum * 100 / e.fileSize)
	}
	now := time.Now()
	advance := percent != e.lastAggPercent
	throttled := now.Sub(e.lastAggEmit) < 250*time.Millisecond
	if advance && !throttled {
		e.lastAggPercent = percent
		e.lastAggEmit = now
	} else {
		advance = false
	}
	e.mu.Unlock()

	if advance {
		e.emitProgress(sum, e.fileSize)
	}
}

// finalizeRename renames tempPath onto finalPath. If finalPath already
// exists, overwrite decides whether it's replaced or the rename is rejected.
func finalizeRename(tempPath, finalPath string, overwrite bool) error {
	if pathExists(finalPath) {
		if !overwrite {
			return fmt.Errorf("%w: %s", errs.ErrDestinationExists, finalPath)
		}
		if err := os.Remove(finalPath); err != nil {
			return fmt.Errorf("mtdownload: remove existing destination: %w", err)
		}
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("mtdownload: rename temp to final: %w", err)
	}
	return nil
}
