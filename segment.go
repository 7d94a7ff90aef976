package netreq

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tanq16/netreq/internal/mapping"
)

// segmentOutcome is the terminal event a segment worker reports to its
// coordinator exactly once.
type segmentOutcome struct {
	index int
	ok    bool
	err   error
}

// segmentWorker drives one disjoint byte-range GET and writes each chunk
// into file at start+cumulativeWritten via WriteUnsafe — safe because
// coordinator-assigned ranges never overlap.
type segmentWorker struct {
	index      int
	startByte  int64
	endByte    int64
	url        string
	userAgent  string
	maxRedirects int
	client     *http.Client
	file       *mapping.File
	gate       *progressGate

	cancel context.CancelFunc
}

func newSegmentWorker(index int, startByte, endByte int64, url, userAgent string, maxRedirects int, client *http.Client, file *mapping.File) *segmentWorker {
	return &segmentWorker{
		index:        index,
		startByte:    startByte,
		endByte:      endByte,
		url:          url,
		userAgent:    userAgent,
		maxRedirects: maxRedirects,
		client:       client,
		file:         file,
		gate:         newProgressGate(),
	}
}

// run executes the range request and streams the body into the mapping,
// invoking onProgress(index, received, total) (throttled) as bytes land and
// reporting exactly one outcome on done.
func (w *segmentWorker) run(parent context.Context, onProgress func(index int, received, total int64), done func(segmentOutcome)) {
	reqCtx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	defer cancel()

	total := w.endByte - w.startByte + 1
	build := func(rawURL string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", w.startByte, w.endByte))
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}

	resp, _, err := followRedirects(reqCtx, w.client, w.userAgent, build, w.url, w.maxRedirects, nil)
	if err != nil {
		done(segmentOutcome{index: w.index, ok: false, err: err})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		// A 200 means the server ignored the Range header and is about to
		// send the whole file; writing that at startByte would overrun
		// this segment's window into its neighbors', so treat it as a
		// hard failure rather than silently truncating via WriteUnsafe's
		// clamp.
		done(segmentOutcome{index: w.index, ok: false, err: fmt.Errorf("segment %d: server returned status %d, expected 206", w.index, resp.StatusCode)})
		return
	}

	buf := make([]byte, 32*1024)
	var written int64
	for {
		select {
		case <-reqCtx.Done():
			done(segmentOutcome{index: w.index, ok: false, err: reqCtx.Err()})
			return
		default:
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.file.WriteUnsafe(w.startByte+written, buf[:n]); werr != nil {
				done(segmentOutcome{index: w.index, ok: false, err: werr})
				return
			}
			written += int64(n)
			if w.gate.allow(written, total) {
				onProgress(w.index, written, total)
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				onProgress(w.index, written, total)
				done(segmentOutcome{index: w.index, ok: true})
				return
			}
			done(segmentOutcome{index: w.index, ok: false, err: rerr})
			return
		}
	}
}

func (w *segmentWorker) abort() {
	if w.cancel != nil {
		w.cancel()
	}
}
