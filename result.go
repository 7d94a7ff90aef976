package netreq

import "time"

// TaskID, BatchID and SessionID are process-monotonic identifiers. 0 is
// reserved to mean "none".
type TaskID int64
type BatchID int64
type SessionID int64

// TaskMeta is the per-request metadata tracked alongside a Context for its
// whole lifetime.
type TaskMeta struct {
	ID                 TaskID
	BatchID            BatchID
	SessionID          SessionID
	AbortBatchOnFailed bool
	CreateTime         time.Time
	StartTime          time.Time
	EndTime            time.Time
}

// Performance carries the timing/byte counters finalized on every terminal
// Result.
type Performance struct {
	DurationMs    int64
	BytesReceived int64
	BytesSent     int64
}

// Result is the terminal outcome of one request. Invariants: Success implies
// ErrorMessage=="", Cancelled implies !Success.
type Result struct {
	Success      bool
	Cancelled    bool
	ErrorMessage string
	Body         string
	Headers      *Headers
	Task         TaskMeta
	UserContext  any
	Performance  Performance
}

func finalizeResult(r Result, task TaskMeta) Result {
	task.EndTime = time.Now()
	r.Task = task
	r.Performance.DurationMs = task.EndTime.Sub(task.StartTime).Milliseconds()
	if r.Cancelled {
		r.Success = false
	}
	if r.Success {
		r.ErrorMessage = ""
	}
	return r
}

func cancelledResult(task TaskMeta, message string) Result {
	return Result{
		Success:      false,
		Cancelled:    true,
		ErrorMessage: message,
		Task:         task,
	}
}

func failedResult(task TaskMeta, err error) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Success:      false,
		ErrorMessage: msg,
		Task:         task,
	}
}
