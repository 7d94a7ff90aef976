package netreq

import "sync/atomic"

// idCounter is a process-monotonic 64-bit counter starting at 1; 0 stays
// reserved as "none".
type idCounter struct {
	n int64
}

func (c *idCounter) next() int64 {
	return atomic.AddInt64(&c.n, 1)
}
