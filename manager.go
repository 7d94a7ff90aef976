package netreq

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	minPoolSize = 1
	maxPoolSize = 100
)

// Manager is the process-wide request scheduler: a bounded worker pool plus
// the registries that route progress and terminal events back to the right
// ReplyHandle. A process normally uses the single shared instance returned
// by GetManager, but nothing here depends on global state beyond that
// convenience constructor.
type Manager struct {
	mu sync.Mutex

	maxThreads int
	inFlight   int
	queue      []func()

	taskIDs    idCounter
	batchIDs   idCounter
	sessionIDs idCounter

	runnables  map[TaskID]*runnable
	replies    map[TaskID]*ReplyHandle
	taskToBatch map[TaskID]BatchID

	batchReplies    map[BatchID]*ReplyHandle
	batchTotal      map[BatchID]int
	batchDone       map[BatchID]int
	batchAllSuccess map[BatchID]bool
	batchAbortOnFail map[BatchID]bool
	batchDirection   map[BatchID]bool // true = download, false = upload
	batchBytesPerTask map[BatchID]map[TaskID]int64
	batchTotalBytes   map[BatchID]int64

	sessionToIDs     map[SessionID][]TaskID
	stoppedSessions  map[SessionID]bool

	initialized bool
}

var (
	sharedManager     *Manager
	sharedManagerOnce sync.Once
)

// GetManager returns the process-wide Manager, constructing and
// initializing it on first use.
func GetManager() *Manager {
	sharedManagerOnce.Do(func() {
		sharedManager = NewManager()
		sharedManager.initialize()
	})
	return sharedManager
}

// NewManager constructs an uninitialized Manager. Most callers want
// GetManager; NewManager exists for tests that need isolated registries.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 8
	}
	m.maxThreads = clampPoolSize(n)
	m.runnables = make(map[TaskID]*runnable)
	m.replies = make(map[TaskID]*ReplyHandle)
	m.taskToBatch = make(map[TaskID]BatchID)
	m.batchReplies = make(map[BatchID]*ReplyHandle)
	m.batchTotal = make(map[BatchID]int)
	m.batchDone = make(map[BatchID]int)
	m.batchAllSuccess = make(map[BatchID]bool)
	m.batchAbortOnFail = make(map[BatchID]bool)
	m.batchDirection = make(map[BatchID]bool)
	m.batchBytesPerTask = make(map[BatchID]map[TaskID]int64)
	m.batchTotalBytes = make(map[BatchID]int64)
	m.sessionToIDs = make(map[SessionID][]TaskID)
	m.stoppedSessions = make(map[SessionID]bool)
	m.initialized = true
}

// unInitialize aborts every in-flight task and clears all registries. Mostly
// useful in tests; a live process rarely needs to tear the manager down.
func (m *Manager) unInitialize() {
	m.mu.Lock()
	runnables := make([]*runnable, 0, len(m.runnables))
	for _, r := range m.runnables {
		runnables = append(runnables, r)
	}
	m.initialized = false
	m.mu.Unlock()

	for _, r := range runnables {
		r.quit()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runnables = make(map[TaskID]*runnable)
	m.replies = make(map[TaskID]*ReplyHandle)
	m.taskToBatch = make(map[TaskID]BatchID)
	m.batchReplies = make(map[BatchID]*ReplyHandle)
	m.batchTotal = make(map[BatchID]int)
	m.batchDone = make(map[BatchID]int)
	m.batchAllSuccess = make(map[BatchID]bool)
	m.batchAbortOnFail = make(map[BatchID]bool)
	m.batchDirection = make(map[BatchID]bool)
	m.batchBytesPerTask = make(map[BatchID]map[TaskID]int64)
	m.batchTotalBytes = make(map[BatchID]int64)
	m.sessionToIDs = make(map[SessionID][]TaskID)
	m.stoppedSessions = make(map[SessionID]bool)
}

func (m *Manager) isInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func clampPoolSize(n int) int {
	if n < minPoolSize {
		return minPoolSize
	}
	if n > maxPoolSize {
		return maxPoolSize
	}
	return n
}

// SetMaxThreadCount changes the pool size, clamped to [1,100]. Takes effect
// for tasks scheduled after the call; already-running tasks are unaffected.
func (m *Manager) SetMaxThreadCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxThreads = clampPoolSize(n)
	m.drainQueueLocked()
}

// MaxThreadCount returns the current pool size.
func (m *Manager) MaxThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxThreads
}

// NextSessionID mints a fresh SessionID for grouping related submissions
// under one CancelSession call.
func (m *Manager) NextSessionID() SessionID {
	return SessionID(m.sessionIDs.next())
}

// Submit validates ctx, registers a new task (optionally under session), and
// schedules it on the pool. The returned ReplyHandle delivers progress and
// the terminal Result.
func (m *Manager) Submit(ctx *Context, session SessionID) (TaskID, *ReplyHandle, error) {
	if err := ctx.Validate(); err != nil {
		return 0, nil, err
	}
	id := TaskID(m.taskIDs.next())
	meta := TaskMeta{ID: id, SessionID: session, CreateTime: time.Now()}
	r, err := newRunnable(ctx, meta)
	if err != nil {
		return 0, nil, err
	}
	reply := newReplyHandle()

	m.mu.Lock()
	if session != 0 && m.stoppedSessions[session] {
		m.mu.Unlock()
		return 0, nil, fmt.Errorf("manager: session %d already stopped", session)
	}
	m.runnables[id] = r
	m.replies[id] = reply
	if session != 0 {
		m.sessionToIDs[session] = append(m.sessionToIDs[session], id)
	}
	m.mu.Unlock()

	m.schedule(id, r, reply, func(res Result) { m.finishTask(id, res) })
	return id, reply, nil
}

// SubmitBatch submits every Context in ctxs under one new BatchID, whose
// ReplyHandle aggregates both progress (batchDownloadProgress/
// batchUploadProgress) and the collective finish accounting.
func (m *Manager) SubmitBatch(ctxs []*Context, session SessionID, abortOnFailed bool, isDownload bool) (BatchID, *ReplyHandle, error) {
	batchID := BatchID(m.batchIDs.next())
	reply := newReplyHandle()

	m.mu.Lock()
	m.batchReplies[batchID] = reply
	m.batchTotal[batchID] = len(ctxs)
	m.batchAllSuccess[batchID] = true
	m.batchAbortOnFail[batchID] = abortOnFailed
	m.batchDirection[batchID] = isDownload
	m.batchBytesPerTask[batchID] = make(map[TaskID]int64)
	m.mu.Unlock()

	for _, ctx := range ctxs {
		if err := ctx.Validate(); err != nil {
			return batchID, nil, err
		}
		id := TaskID(m.taskIDs.next())
		meta := TaskMeta{ID: id, BatchID: batchID, SessionID: session, AbortBatchOnFailed: abortOnFailed, CreateTime: time.Now()}
		r, err := newRunnable(ctx, meta)
		if err != nil {
			return batchID, nil, err
		}

		m.mu.Lock()
		m.runnables[id] = r
		m.taskToBatch[id] = batchID
		if session != 0 {
			m.sessionToIDs[session] = append(m.sessionToIDs[session], id)
		}
		m.mu.Unlock()

		m.schedule(id, r, nil, func(res Result) { m.finishBatchTask(id, batchID, res) })
	}
	return batchID, reply, nil
}

// schedule runs the runnable immediately if the pool has a free slot,
// otherwise queues it for the next freed slot.
func (m *Manager) schedule(id TaskID, r *runnable, reply *ReplyHandle, onFinish func(Result)) {
	onProgress := func(e ProgressEvent) {
		if reply == nil {
			return
		}
		if r.ctx.Kind == Upload {
			reply.emitUploadProgress(e)
		} else {
			reply.emitDownloadProgress(e)
		}
	}

	m.mu.Lock()
	if m.inFlight < m.maxThreads {
		m.inFlight++
		m.mu.Unlock()
		r.start(onProgress, func(res Result) {
			onFinish(res)
			m.releaseSlot()
		})
		return
	}
	m.queue = append(m.queue, func() {
		m.inFlight++
		r.start(onProgress, func(res Result) {
			onFinish(res)
			m.releaseSlot()
		})
	})
	m.mu.Unlock()
}

func (m *Manager) releaseSlot() {
	m.mu.Lock()
	m.inFlight--
	m.drainQueueLocked()
	m.mu.Unlock()
}

// drainQueueLocked starts queued tasks while the pool has free slots. Caller
// must hold m.mu.
func (m *Manager) drainQueueLocked() {
	for m.inFlight < m.maxThreads && len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		next()
	}
}

func (m *Manager) finishTask(id TaskID, res Result) {
	m.mu.Lock()
	reply := m.replies[id]
	delete(m.runnables, id)
	delete(m.replies, id)
	m.mu.Unlock()
	if reply != nil {
		reply.emitFinish(res)
	}
}

func (m *Manager) finishBatchTask(id TaskID, batchID BatchID, res Result) {
	m.mu.Lock()
	delete(m.runnables, id)
	delete(m.taskToBatch, id)

	bytes := res.Performance.BytesReceived
	isDownload := m.batchDirection[batchID]
	if !isDownload {
		bytes = res.Performance.BytesSent
	}
	if perTask, ok := m.batchBytesPerTask[batchID]; ok {
		perTask[id] = bytes
	}
	var sum int64
	for _, b := range m.batchBytesPerTask[batchID] {
		sum += b
	}
	m.batchTotalBytes[batchID] = sum

	if !res.Success {
		m.batchAllSuccess[batchID] = false
	}
	allSuccess := m.batchAllSuccess[batchID]

	m.batchDone[batchID]++
	done, total := m.batchDone[batchID], m.batchTotal[batchID]
	abortOnFail := m.batchAbortOnFail[batchID]
	reply := m.batchReplies[batchID]
	var siblingsToAbort []*runnable
	if !res.Success && abortOnFail {
		for taskID, b := range m.taskToBatch {
			if b == batchID {
				if r, ok := m.runnables[taskID]; ok {
					siblingsToAbort = append(siblingsToAbort, r)
				}
			}
		}
	}
	complete := done >= total
	if complete {
		delete(m.batchReplies, batchID)
		delete(m.batchTotal, batchID)
		delete(m.batchDone, batchID)
		delete(m.batchAllSuccess, batchID)
		delete(m.batchAbortOnFail, batchID)
		delete(m.batchDirection, batchID)
		delete(m.batchBytesPerTask, batchID)
		delete(m.batchTotalBytes, batchID)
	}
	m.mu.Unlock()

	for _, sib := range siblingsToAbort {
		sib.quit()
	}
	if reply != nil {
		event := ProgressEvent{Received: sum, Total: sum}
		if isDownload {
			reply.emitBatchDownloadProgress(event)
		} else {
			reply.emitBatchUploadProgress(event)
		}
		if complete {
			reply.emitFinish(Result{
				Success: allSuccess,
				Task:    TaskMeta{BatchID: batchID},
				Performance: Performance{
					BytesReceived: sum,
				},
			})
		}
	}
}

// Cancel aborts one in-flight task. A no-op if the task is unknown or
// already finished.
func (m *Manager) Cancel(id TaskID) {
	m.mu.Lock()
	r, ok := m.runnables[id]
	m.mu.Unlock()
	if ok {
		r.quit()
	}
}

// CancelBatch aborts every still-running task belonging to batchID.
func (m *Manager) CancelBatch(batchID BatchID) {
	m.mu.Lock()
	var targets []*runnable
	for id, b := range m.taskToBatch {
		if b == batchID {
			if r, ok := m.runnables[id]; ok {
				targets = append(targets, r)
			}
		}
	}
	m.mu.Unlock()
	for _, r := range targets {
		r.quit()
	}
}

// CancelSession aborts every still-running task submitted under session and
// marks the session stopped: later Submit calls under the same session are
// rejected.
func (m *Manager) CancelSession(session SessionID) {
	m.mu.Lock()
	m.stoppedSessions[session] = true
	ids := m.sessionToIDs[session]
	var targets []*runnable
	for _, id := range ids {
		if r, ok := m.runnables[id]; ok {
			targets = append(targets, r)
		}
	}
	m.mu.Unlock()
	for _, r := range targets {
		r.quit()
	}
}

// CancelAll aborts every task currently tracked by the manager.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	targets := make([]*runnable, 0, len(m.runnables))
	for _, r := range m.runnables {
		targets = append(targets, r)
	}
	m.mu.Unlock()
	for _, r := range targets {
		r.quit()
	}
	log.Debug().Str("op", "manager").Int("count", len(targets)).Msg("aborted all in-flight tasks")
}

// Send is a convenience wrapper around Submit that blocks until the task's
// terminal Result is available.
func (m *Manager) Send(ctx *Context) (Result, error) {
	_, reply, err := m.Submit(ctx, 0)
	if err != nil {
		return Result{}, err
	}
	res := <-reply.Finished()
	return res, nil
}
