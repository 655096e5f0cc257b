package sim

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itohio/tempseg/pkg/reading"
	"github.com/itohio/tempseg/pkg/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pattern(t *testing.T, d uint8, dp bool) segment.Pattern {
	t.Helper()
	g, err := segment.Encode(d)
	require.NoError(t, err)
	if dp {
		g = g.WithDP()
	}
	return segment.DefaultLayout.Pattern(g)
}

func TestRecorder_Latches(t *testing.T) {
	r := NewRecorder(segment.DefaultLayout)
	assert.Equal(t, "----", r.String())

	for pos, d := range []uint8{0, 3, 2, 8} {
		r.WriteSegments(0)
		r.WriteSegments(pattern(t, d, pos == 1))
		r.Enable(pos)
		r.Disable(pos)
	}

	assert.Equal(t, "03.28", r.String())
	digits, dp, ok := r.Digits()
	assert.Equal(t, [Digits]uint8{0, 3, 2, 8}, digits)
	assert.Equal(t, [Digits]bool{false, true, false, false}, dp)
	assert.Equal(t, [Digits]bool{true, true, true, true}, ok)
	assert.Equal(t, uint64(4), r.Latches())
	assert.Equal(t, 1, r.MaxActive())
	assert.Zero(t, r.Violations())
}

func TestRecorder_Violation(t *testing.T) {
	r := NewRecorder(segment.DefaultLayout)
	var frames int
	r.OnLatch(func(Frame) { frames++ })

	r.Enable(0)
	r.Enable(2)
	assert.Equal(t, 2, r.MaxActive())
	assert.Equal(t, uint64(1), r.Violations())
	assert.Equal(t, 2, frames)

	r.Disable(0)
	r.Disable(2)
	r.Enable(1)
	assert.Equal(t, uint64(1), r.Violations())
}

func TestADC_Synchronous(t *testing.T) {
	a := NewADC(Constant(0x2A0), 0)
	var got []uint16
	a.Attach(func(raw uint16) { got = append(got, raw) })

	a.Trigger()
	a.Trigger()
	assert.Equal(t, []uint16{672, 672}, got)
	assert.Equal(t, uint64(2), a.Triggers())
}

func TestADC_Delayed(t *testing.T) {
	a := NewADC(Constant(100), 2*time.Millisecond)
	done := make(chan uint16, 1)
	a.Attach(func(raw uint16) { done <- raw })

	start := time.Now()
	a.Trigger()
	select {
	case raw := <-done:
		assert.Equal(t, uint16(100), raw)
		assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("conversion never completed")
	}
	a.Wait()
}

func TestADC_Detached(t *testing.T) {
	a := NewADC(Constant(1), 0)
	assert.NotPanics(t, a.Trigger)
}

func TestTimer(t *testing.T) {
	var ticks atomic.Uint64
	tm := NewTimer(time.Millisecond, func() { ticks.Add(1) })

	tm.Start(context.Background())
	tm.Start(context.Background())
	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, time.Second, time.Millisecond)
	tm.Stop()

	stopped := ticks.Load()
	assert.Equal(t, stopped, tm.Overflows())
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "no overflow after Stop")
	tm.Stop()
}

func TestTimer_ContextCancel(t *testing.T) {
	var ticks atomic.Uint64
	tm := NewTimer(time.Millisecond, func() { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	tm.Start(ctx)
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	tm.Stop()
}

func TestSensor(t *testing.T) {
	s := NewSensor(SensorConfig{
		Base:  32.8125,
		Scale: reading.Scale{VoltsPerCount: 5.0 / 1024.0, VoltsPerUnit: 0.1},
	})
	assert.Equal(t, uint16(672), s.Sample())

	swing := NewSensor(SensorConfig{
		Base:      25,
		Amplitude: 5,
		Period:    4 * time.Second,
		Scale:     reading.DefaultScale(),
	})
	assert.InDelta(t, 30, swing.Temperature(swing.start.Add(time.Second)), 1e-9)
	assert.InDelta(t, 20, swing.Temperature(swing.start.Add(3*time.Second)), 1e-9)

	noisy := NewSensor(SensorConfig{
		Base:  25,
		Noise: 0.5,
		Scale: reading.DefaultScale(),
	})
	lo := reading.DefaultScale().Raw(24.5, 1023)
	hi := reading.DefaultScale().Raw(25.5, 1023)
	for i := 0; i < 100; i++ {
		raw := noisy.Sample()
		assert.GreaterOrEqual(t, raw, lo)
		assert.LessOrEqual(t, raw, hi)
	}

	hot := NewSensor(SensorConfig{Base: 1000, Scale: reading.DefaultScale()})
	assert.Equal(t, uint16(1023), hot.Sample())
}

func TestRecorder_Layout(t *testing.T) {
	layout := segment.Layout{0, 1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, layout, NewRecorder(layout).Layout())
}
