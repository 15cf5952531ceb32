package controller

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// worker is the handle of one background activity.
type worker struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func newWorker() (*worker, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}, ctx
}

// finished reports whether the worker goroutine has returned.
func (w *worker) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// stop cancels the worker and waits up to timeout for it to return.
// It reports false on timeout.
func (w *worker) stop(timeout time.Duration) bool {
	w.cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

// sleepCtx waits for d or until ctx is cancelled. It reports false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// closedChan is returned by the Done accessors when nothing is running.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
