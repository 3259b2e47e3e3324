package monitor

import (
	"context"
	"time"
)

// Waiter is a timed sleep that can be cut short. Wakes are coalesced: any
// number of Wake calls while the worker is busy make the next Wait return
// immediately once.
type Waiter struct {
	wake chan struct{}
}

func NewWaiter() *Waiter {
	return &Waiter{wake: make(chan struct{}, 1)}
}

// Wake never blocks.
func (w *Waiter) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Wait blocks for d, until woken, or until ctx is done. It reports whether
// it returned before the timeout.
func (w *Waiter) Wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return false
	case <-w.wake:
		return true
	case <-ctx.Done():
		return true
	}
}
