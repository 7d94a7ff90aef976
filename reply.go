package netreq

import "sync"

// ProgressEvent carries a received/total byte pair for any of the four
// progress observables a ReplyHandle exposes.
type ProgressEvent struct {
	Received int64
	Total    int64
}

// ReplyHandle is the caller-visible subscription object for a single
// request or a batch. It carries plain channels: the manager is the sole
// writer, the caller the sole reader. It must tolerate being torn down while
// events are in flight — emits after the terminal event (emitFinish) are
// silently dropped rather than panicking on a closed channel.
type ReplyHandle struct {
	mu     sync.Mutex
	closed bool

	finish                chan Result
	downloadProgress      chan ProgressEvent
	uploadProgress        chan ProgressEvent
	batchDownloadProgress chan ProgressEvent
	batchUploadProgress   chan ProgressEvent
}

func newReplyHandle() *ReplyHandle {
	return &ReplyHandle{
		finish:                make(chan Result, 1),
		downloadProgress:      make(chan ProgressEvent, 1),
		uploadProgress:        make(chan ProgressEvent, 1),
		batchDownloadProgress: make(chan ProgressEvent, 1),
		batchUploadProgress:   make(chan ProgressEvent, 1),
	}
}

// Finished receives exactly one Result and is then closed.
func (h *ReplyHandle) Finished() <-chan Result { return h.finish }

// DownloadProgress receives the latest (received,total) for a single
// download request. Only the most recent update is retained if the caller
// isn't draining fast enough.
func (h *ReplyHandle) DownloadProgress() <-chan ProgressEvent { return h.downloadProgress }

// UploadProgress is the upload analog of DownloadProgress.
func (h *ReplyHandle) UploadProgress() <-chan ProgressEvent { return h.uploadProgress }

// BatchDownloadProgress receives the running sum of downloaded bytes across
// every member of a batch.
func (h *ReplyHandle) BatchDownloadProgress() <-chan ProgressEvent { return h.batchDownloadProgress }

// BatchUploadProgress is the upload analog of BatchDownloadProgress.
func (h *ReplyHandle) BatchUploadProgress() <-chan ProgressEvent { return h.batchUploadProgress }

// latestSend keeps only the newest value in a size-1 channel: it drains a
// stale pending value (if any) before sending so slow readers still see the
// most recent progress rather than blocking the emitter.
func latestSend(ch chan ProgressEvent, v ProgressEvent) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (h *ReplyHandle) emitDownloadProgress(e ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	latestSend(h.downloadProgress, e)
}

func (h *ReplyHandle) emitUploadProgress(e ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	latestSend(h.uploadProgress, e)
}

func (h *ReplyHandle) emitBatchDownloadProgress(e ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	latestSend(h.batchDownloadProgress, e)
}

func (h *ReplyHandle) emitBatchUploadProgress(e ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	latestSend(h.batchUploadProgress, e)
}

// emitFinish delivers the terminal Result and marks the handle closed. Safe
// to call at most meaningfully once; later calls are no-ops.
func (h *ReplyHandle) emitFinish(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.finish <- r:
	default:
	}
	close(h.finish)
	h.closed = true
}

// isClosed reports whether the handle has already delivered its terminal
// event.
func (h *ReplyHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
