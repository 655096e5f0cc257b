package clock

import (
	"sync/atomic"
	"time"
)

// DefaultThreshold is the number of timer overflows between cache refreshes.
const DefaultThreshold = 500

// Clock counts timer overflow ticks and signals when a refresh is due.
//
// Tick is called from the timer interrupt and only ever increments.
// Take is called from the main loop and clears the count in the same
// atomic step that observes the threshold, so a tick arriving in between
// is never lost.
type Clock struct {
	count     atomic.Uint32
	threshold uint32
	refreshes atomic.Uint64
}

// New creates a Clock that fires every threshold ticks.
func New(threshold uint32) *Clock {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Clock{threshold: threshold}
}

// Tick records one timer overflow.
func (c *Clock) Tick() {
	c.count.Add(1)
}

// Take reports whether the threshold has been reached and, if so, resets the count.
func (c *Clock) Take() bool {
	for {
		n := c.count.Load()
		if n < c.threshold {
			return false
		}
		if c.count.CompareAndSwap(n, 0) {
			c.refreshes.Add(1)
			return true
		}
	}
}

// Count returns the ticks counted since the last refresh.
func (c *Clock) Count() uint32 {
	return c.count.Load()
}

// Threshold returns the configured refresh threshold.
func (c *Clock) Threshold() uint32 {
	return c.threshold
}

// Refreshes returns how many times Take has fired.
func (c *Clock) Refreshes() uint64 {
	return c.refreshes.Load()
}

// Period returns the refresh cadence for a given tick period.
func (c *Clock) Period(tick time.Duration) time.Duration {
	return time.Duration(c.threshold) * tick
}

// OverflowPeriod is the tick period of an 8-bit timer clocked at
// instruction rate (fosc/4) through a prescaler.
func OverflowPeriod(fosc uint32, prescaler uint32) time.Duration {
	if fosc == 0 {
		return 0
	}
	cycles := uint64(256) * uint64(prescaler) * 4
	return time.Duration(cycles * uint64(time.Second) / uint64(fosc))
}
