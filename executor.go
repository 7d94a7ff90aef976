package netreq

import (
	"net/http"
	"sync"
	"time"

	"github.com/tanq16/netreq/internal/httpclient"
)

// Executor is the per-request state machine that performs the actual
// HTTP/FTP operation. Every Kind of Context is driven by one Executor
// implementation, selected by newExecutor.
type Executor interface {
	// Start begins the network operation. Non-blocking: the terminal
	// Result arrives on Done().
	Start()
	// Abort cancels any in-flight work and frees resources. Safe to call
	// even if Start hasn't been called or the executor already finished.
	Abort()
	// Done receives exactly one Result and is then closed.
	Done() <-chan Result
	// Progress receives throttled progress updates when the Context asked
	// for them. Always non-nil; simply never fires if ShowProgress==false.
	Progress() <-chan ProgressEvent
}

// progressGate enforces a 250ms-floor-plus-percent-delta throttle so
// progress-emitting executors don't flood a slow reader.
type progressGate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastEmit    time.Time
	lastPercent int
	armed       bool
}

func newProgressGate() *progressGate {
	return &progressGate{minInterval: 250 * time.Millisecond, lastPercent: -1}
}

// allow reports whether a progress update for (received,total) should be
// emitted now, updating internal throttle state if so. The very first call
// for a request always passes, so callers see the first update without
// waiting out the throttle.
func (g *progressGate) allow(received, total int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	percent := -1
	if total > 0 {
		percent = int(received * 100 / total)
	}
	if !g.armed {
		g.armed = true
		g.lastEmit = now
		g.lastPercent = percent
		return true
	}
	if now.Sub(g.lastEmit) < g.minInterval {
		return false
	}
	if total > 0 && percent == g.lastPercent {
		return false
	}
	g.lastEmit = now
	g.lastPercent = percent
	return true
}

// executorBase is embedded by every Executor implementation: it owns the
// terminal/progress channels and the http.Client shared across the
// request's lifetime (including any redirects it follows).
type executorBase struct {
	ctx        *Context
	client     *http.Client
	doneCh     chan Result
	progressCh chan ProgressEvent
	gate       *progressGate

	mu       sync.Mutex
	aborted  bool
	abortFns []func()
}

func newExecutorBase(ctx *Context) (*executorBase, error) {
	highThread := ctx.DownloadConfig != nil && ctx.DownloadConfig.resolvedThreadCount() > 5
	client, err := httpclient.New(httpclient.Config{
		Timeout:        ctx.Behavior.TransferTimeout,
		HighThreadMode: highThread,
		TLSConfig:      ctx.TLSConfig,
	})
	if err != nil {
		return nil, err
	}
	return &executorBase{
		ctx:        ctx,
		client:     client,
		doneCh:     make(chan Result, 1),
		progressCh: make(chan ProgressEvent, 1),
		gate:       newProgressGate(),
	}, nil
}

func (b *executorBase) Done() <-chan Result { return b.doneCh }

func (b *executorBase) Progress() <-chan ProgressEvent { return b.progressCh }

func (b *executorBase) emitProgress(received, total int64) {
	if !b.ctx.Behavior.ShowProgress {
		return
	}
	if !b.gate.allow(received, total) {
		return
	}
	latestSend(b.progressCh, ProgressEvent{Received: received, Total: total})
}

func (b *executorBase) emitDone(r Result) {
	select {
	case b.doneCh <- r:
	default:
	}
	close(b.doneCh)
}

func (b *executorBase) isAborted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aborted
}

// onAbort registers a cleanup callback invoked by Abort. Callbacks run in
// registration order; typically a context.CancelFunc for the in-flight
// HTTP request.
func (b *executorBase) onAbort(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.aborted {
		fn()
		return
	}
	b.abortFns = append(b.abortFns, fn)
}

func (b *executorBase) Abort() {
	b.mu.Lock()
	if b.aborted {
		b.mu.Unlock()
		return
	}
	b.aborted = true
	fns := b.abortFns
	b.abortFns = nil
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
