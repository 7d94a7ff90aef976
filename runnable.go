package netreq

import "time"

// runnable wraps one Context for its entire lifetime inside the manager's
// pool: it instantiates the right Executor, stamps timing into the final
// Result, and forwards progress/terminal events to caller-supplied sinks.
// The manager retains ownership — nothing here ever removes itself from a
// registry.
type runnable struct {
	ctx      *Context
	meta     TaskMeta
	executor Executor
}

func newRunnable(ctx *Context, meta TaskMeta) (*runnable, error) {
	exec, err := newExecutor(ctx, meta)
	if err != nil {
		return nil, err
	}
	return &runnable{ctx: ctx, meta: meta, executor: exec}, nil
}

// start begins the network operation and spawns the forwarding goroutine.
// onProgress is called for every throttled progress tick; onFinish is called
// exactly once with the finalized terminal Result.
func (r *runnable) start(onProgress func(ProgressEvent), onFinish func(Result)) {
	r.meta.StartTime = time.Now()
	r.executor.Start()
	go func() {
		progressCh := r.executor.Progress()
		doneCh := r.executor.Done()
		for {
			select {
			case e, ok := <-progressCh:
				if !ok {
					progressCh = nil
					continue
				}
				if onProgress != nil {
					onProgress(e)
				}
			case res, ok := <-doneCh:
				if !ok {
					return
				}
				onFinish(finalizeResult(res, r.meta))
				return
			}
		}
	}()
}

// quit cancels the in-flight operation. Safe to call even before start or
// after the runnable has already finished.
func (r *runnable) quit() {
	r.executor.Abort()
}
