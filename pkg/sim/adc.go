package sim

import (
	"sync"
	"time"
)

// Source produces the analog value seen by the converter, in raw counts.
type Source interface {
	Sample() uint16
}

// Constant is a fixed raw value.
type Constant uint16

func (c Constant) Sample() uint16 {
	return uint16(c)
}

// ADC is a simulated converter. Trigger samples the source and reports the
// result to the attached completion handler after the conversion time.
type ADC struct {
	source Source
	delay  time.Duration

	mu       sync.Mutex
	complete func(raw uint16)
	wg       sync.WaitGroup
	triggers uint64
}

// NewADC creates a converter. A zero delay completes inside Trigger.
func NewADC(source Source, delay time.Duration) *ADC {
	return &ADC{
		source: source,
		delay:  delay,
	}
}

// Attach sets the completion handler, normally the conversion-complete interrupt line.
func (a *ADC) Attach(complete func(raw uint16)) {
	a.mu.Lock()
	a.complete = complete
	a.mu.Unlock()
}

// Trigger starts a conversion.
func (a *ADC) Trigger() {
	a.mu.Lock()
	complete := a.complete
	a.triggers++
	a.mu.Unlock()

	raw := a.source.Sample()
	if complete == nil {
		return
	}
	if a.delay <= 0 {
		complete(raw)
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		time.Sleep(a.delay)
		complete(raw)
	}()
}

// Triggers returns how many conversions were started.
func (a *ADC) Triggers() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.triggers
}

// Wait blocks until every pending conversion has completed.
func (a *ADC) Wait() {
	a.wg.Wait()
}
