package adc

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Error is an adc package error.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrConversionInFlight is returned by Start while a conversion is running.
// It is a caller error and never fatal: the running conversion is unaffected.
const ErrConversionInFlight = Error("conversion already in flight")

// DefaultResolution is the converter width in bits.
const DefaultResolution = 10

// Trigger starts a hardware conversion. The hardware reports the result
// later by calling Controller.Complete, possibly from another goroutine.
type Trigger interface {
	Trigger()
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func()

func (f TriggerFunc) Trigger() {
	f()
}

// Stats are controller counters.
type Stats struct {
	Started   uint64
	Completed uint64
	Rejected  uint64 // Start calls while in flight
	Spurious  uint64 // completions with no conversion in flight
}

// Controller arms conversions and captures their results.
type Controller struct {
	trigger    Trigger
	resolution uint8
	mask       uint16

	raw      atomic.Uint32
	inFlight atomic.Bool

	started   atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64
	spurious  atomic.Uint64
}

// New creates a controller for a converter of the given resolution in bits.
func New(trigger Trigger, resolution uint8) *Controller {
	if resolution == 0 || resolution > 16 {
		resolution = DefaultResolution
	}
	return &Controller{
		trigger:    trigger,
		resolution: resolution,
		mask:       uint16(uint32(1)<<resolution - 1),
	}
}

// Resolution returns the converter width in bits.
func (c *Controller) Resolution() uint8 {
	return c.resolution
}

// MaxRaw returns the largest raw value.
func (c *Controller) MaxRaw() uint16 {
	return c.mask
}

// Start triggers a conversion. It has no effect while one is in flight.
func (c *Controller) Start() error {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.rejected.Add(1)
		return ErrConversionInFlight
	}
	c.started.Add(1)
	c.trigger.Trigger()
	return nil
}

// Complete is the conversion-complete interrupt handler.
func (c *Controller) Complete(raw uint16) {
	if !c.inFlight.Load() {
		c.spurious.Add(1)
		return
	}
	c.raw.Store(uint32(raw & c.mask))
	c.completed.Add(1)
	c.inFlight.Store(false)
}

// Raw returns the latest captured sample.
func (c *Controller) Raw() uint16 {
	return uint16(c.raw.Load())
}

// InFlight reports whether a conversion is running.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// Wait spins until no conversion is in flight.
func (c *Controller) Wait(ctx context.Context) error {
	for c.inFlight.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			runtime.Gosched()
		}
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Started:   c.started.Load(),
		Completed: c.completed.Load(),
		Rejected:  c.rejected.Load(),
		Spurious:  c.spurious.Load(),
	}
}
