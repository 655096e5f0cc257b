package display

import "time"

// Delayer blocks for the digit dwell time.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to Delayer.
type DelayFunc func(d time.Duration)

func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// BusyWait spins on the clock without yielding, like a microcontroller delay loop.
type BusyWait struct{}

func (BusyWait) Delay(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// Sleep yields to the scheduler for the dwell time.
type Sleep struct{}

func (Sleep) Delay(d time.Duration) {
	time.Sleep(d)
}
