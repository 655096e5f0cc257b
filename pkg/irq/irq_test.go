package irq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_Raise(t *testing.T) {
	c := New()
	var calls []Source
	for _, src := range []Source{RX, ADC, Timer} {
		src := src
		c.Register(src, func() { calls = append(calls, src) })
	}

	c.Raise(Timer)
	c.Raise(RX)
	assert.Equal(t, []Source{Timer, RX}, calls)
	assert.False(t, c.Pending(Timer))
}

func TestController_DrainOrder(t *testing.T) {
	c := New()
	var calls []Source
	for _, src := range []Source{RX, ADC, Timer} {
		src := src
		c.Register(src, func() { calls = append(calls, src) })
	}

	c.Mask()
	c.Raise(Timer)
	c.Raise(ADC)
	c.Raise(RX)
	assert.Empty(t, calls, "masked interrupts are not serviced")
	assert.True(t, c.Pending(RX))
	assert.True(t, c.Pending(ADC))
	assert.True(t, c.Pending(Timer))
	c.Unmask()

	assert.Equal(t, []Source{RX, ADC, Timer}, calls)
}

func TestController_RaiseFromHandler(t *testing.T) {
	c := New()
	var calls []Source
	c.Register(RX, func() {
		calls = append(calls, RX)
	})
	c.Register(Timer, func() {
		calls = append(calls, Timer)
		if len(calls) == 1 {
			c.Raise(RX)
		}
	})

	c.Raise(Timer)
	assert.Equal(t, []Source{Timer, RX}, calls, "a source raised during service runs after the current handler")
}

func TestController_NoLostInterrupts(t *testing.T) {
	const (
		raisers = 8
		each    = 2000
	)
	c := New()

	var mu sync.Mutex
	running := 0
	overlap := false
	var ticks int
	c.Register(Timer, func() {
		mu.Lock()
		running++
		if running > 1 {
			overlap = true
		}
		ticks++
		running--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for r := 0; r < raisers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				c.Raise(Timer)
			}
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.False(t, c.Pending(Timer), "every raise is eventually serviced")
	assert.Greater(t, ticks, 0)
	assert.LessOrEqual(t, ticks, raisers*each, "coalesced raises are serviced once")
	assert.Equal(t, uint64(ticks), c.Serviced(Timer))
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "rx", RX.String())
	assert.Equal(t, "adc", ADC.String())
	assert.Equal(t, "timer", Timer.String())
	assert.Equal(t, "unknown", Source(9).String())
}
