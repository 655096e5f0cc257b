package sim

import (
	"strings"
	"sync"

	"github.com/itohio/tempseg/pkg/segment"
)

// Digits is the number of enable lines on the simulated display.
const Digits = 4

// Frame is the pattern each digit last showed while enabled.
type Frame [Digits]segment.Pattern

// Recorder is a simulated segment bus. It latches the bus pattern into the
// digit being enabled, the way persistence of vision does, and counts any
// moment where more than one enable line is asserted.
type Recorder struct {
	layout segment.Layout

	mu         sync.RWMutex
	bus        segment.Pattern
	enabled    [Digits]bool
	active     int
	maxActive  int
	frame      Frame
	latches    uint64
	violations uint64
	onLatch    func(Frame)
}

// NewRecorder creates a bus for the given wiring.
func NewRecorder(layout segment.Layout) *Recorder {
	return &Recorder{layout: layout}
}

// Layout returns the bus wiring used to decode latched patterns.
func (r *Recorder) Layout() segment.Layout {
	return r.layout
}

// OnLatch registers a callback run after every digit latch, outside the lock.
func (r *Recorder) OnLatch(fn func(Frame)) {
	r.mu.Lock()
	r.onLatch = fn
	r.mu.Unlock()
}

func (r *Recorder) WriteSegments(p segment.Pattern) {
	r.mu.Lock()
	r.bus = p
	r.mu.Unlock()
}

func (r *Recorder) Enable(pos int) {
	r.mu.Lock()
	if !r.enabled[pos] {
		r.enabled[pos] = true
		r.active++
	}
	if r.active > 1 {
		r.violations++
	}
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.frame[pos] = r.bus
	r.latches++
	frame := r.frame
	fn := r.onLatch
	r.mu.Unlock()

	if fn != nil {
		fn(frame)
	}
}

func (r *Recorder) Disable(pos int) {
	r.mu.Lock()
	if r.enabled[pos] {
		r.enabled[pos] = false
		r.active--
	}
	r.mu.Unlock()
}

// Frame returns the latched patterns.
func (r *Recorder) Frame() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame
}

// Latches returns how many digit enables were seen.
func (r *Recorder) Latches() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latches
}

// MaxActive returns the largest number of simultaneously enabled digits seen.
func (r *Recorder) MaxActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxActive
}

// Violations returns how many enables happened with another digit still on.
func (r *Recorder) Violations() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.violations
}

// Digits decodes the latched frame. Blank or unknown patterns decode as ok=false.
func (r *Recorder) Digits() (digits [Digits]uint8, dp [Digits]bool, ok [Digits]bool) {
	frame := r.Frame()
	for i, p := range frame {
		g := r.layout.Glyph(p)
		dp[i] = g.Has(segment.DP)
		digits[i], ok[i] = segment.Decode(g)
	}
	return digits, dp, ok
}

// String renders the frame as text, e.g. "03.28". Unknown digits show as '-'.
func (r *Recorder) String() string {
	digits, dp, ok := r.Digits()
	var b strings.Builder
	for i := range digits {
		if ok[i] {
			b.WriteByte('0' + digits[i])
		} else {
			b.WriteByte('-')
		}
		if dp[i] {
			b.WriteByte('.')
		}
	}
	return b.String()
}
