package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer raises the overflow interrupt at a fixed period.
type Timer struct {
	period   time.Duration
	overflow func()

	overflows atomic.Uint64
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewTimer creates a stopped timer.
func NewTimer(period time.Duration, overflow func()) *Timer {
	return &Timer{
		period:   period,
		overflow: overflow,
	}
}

// Start runs the timer until Stop or ctx is done.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.overflows.Add(1)
				t.overflow()
			}
		}
	}()
}

// Stop halts the timer and waits for the last overflow to finish.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// Overflows returns the number of overflow interrupts raised.
func (t *Timer) Overflows() uint64 {
	return t.overflows.Load()
}
