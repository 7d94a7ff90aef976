package netreq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReplyHandleFinishDeliversOnce(t *testing.T) {
	h := newReplyHandle()
	h.emitFinish(Result{Success: true})

	select {
	case r := <-h.Finished():
		require.True(t, r.Success)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for finish")
	}

	_, ok := <-h.Finished()
	require.False(t, ok, "channel should be closed after terminal event")
}

func TestReplyHandleEmitAfterCloseIsNoop(t *testing.T) {
	h := newReplyHandle()
	h.emitFinish(Result{Success: true})
	require.NotPanics(t, func() {
		h.emitDownloadProgress(ProgressEvent{Received: 1, Total: 2})
		h.emitFinish(Result{Success: false})
	})
}

func TestLatestSendKeepsOnlyNewestValue(t *testing.T) {
	ch := make(chan ProgressEvent, 1)
	latestSend(ch, ProgressEvent{Received: 1, Total: 10})
	latestSend(ch, ProgressEvent{Received: 2, Total: 10})
	latestSend(ch, ProgressEvent{Received: 3, Total: 10})

	got := <-ch
	require.Equal(t, int64(3), got.Received)

	select {
	case <-ch:
		t.Fatal("expected only one buffered value")
	default:
	}
}
