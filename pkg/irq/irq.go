package irq

import (
	"sync"
	"sync/atomic"
)

// Source identifies an interrupt source on the high-priority vector.
type Source uint8

// Sources in service order.
const (
	RX Source = iota
	ADC
	Timer

	numSources
)

func (s Source) String() string {
	switch s {
	case RX:
		return "rx"
	case ADC:
		return "adc"
	case Timer:
		return "timer"
	default:
		return "unknown"
	}
}

// Handler services one interrupt source.
type Handler func()

// Controller dispatches raised interrupts to their handlers.
//
// A raised source is latched as pending. Whoever holds the vector drains
// every pending source in RX, ADC, Timer order and keeps draining until
// nothing is pending, so handlers never nest and never run concurrently.
type Controller struct {
	vector   sync.Mutex
	pending  atomic.Uint32
	handlers [numSources]Handler
	serviced [numSources]atomic.Uint64
}

// New creates a Controller with no handlers.
func New() *Controller {
	return &Controller{}
}

// Register installs h for src. Register before raising.
func (c *Controller) Register(src Source, h Handler) {
	c.handlers[src] = h
}

// Raise latches src and services pending interrupts unless the vector is busy or masked.
func (c *Controller) Raise(src Source) {
	c.pending.Or(1 << src)
	c.service()
}

// Mask blocks interrupt service until Unmask. Raised sources stay pending.
func (c *Controller) Mask() {
	c.vector.Lock()
}

// Unmask re-enables service and runs anything raised while masked.
func (c *Controller) Unmask() {
	c.vector.Unlock()
	c.service()
}

// Pending reports whether src is latched and not yet serviced.
func (c *Controller) Pending(src Source) bool {
	return c.pending.Load()&(1<<src) != 0
}

// Serviced returns how many times the handler for src ran.
func (c *Controller) Serviced(src Source) uint64 {
	return c.serviced[src].Load()
}

func (c *Controller) service() {
	for c.pending.Load() != 0 {
		if !c.vector.TryLock() {
			// The holder re-checks pending after it releases the vector.
			return
		}
		c.drain()
		c.vector.Unlock()
	}
}

func (c *Controller) drain() {
	for {
		pending := c.pending.Swap(0)
		if pending == 0 {
			return
		}
		for src := RX; src < numSources; src++ {
			if pending&(1<<src) == 0 {
				continue
			}
			c.serviced[src].Add(1)
			if h := c.handlers[src]; h != nil {
				h()
			}
		}
	}
}
