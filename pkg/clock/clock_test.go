package clock

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Threshold(t *testing.T) {
	c := New(3)

	assert.False(t, c.Take())
	c.Tick()
	c.Tick()
	assert.False(t, c.Take())
	assert.Equal(t, uint32(2), c.Count())

	c.Tick()
	assert.True(t, c.Take())
	assert.Equal(t, uint32(0), c.Count())
	assert.False(t, c.Take(), "a crossing must fire exactly once")
	assert.Equal(t, uint64(1), c.Refreshes())
}

func TestClock_Defaults(t *testing.T) {
	c := New(0)
	assert.Equal(t, uint32(DefaultThreshold), c.Threshold())
	assert.Equal(t, 500*time.Millisecond, c.Period(time.Millisecond))
}

// TestClock_MatchesModel injects ticks and polls in random order and compares
// against the counter the main loop is expected to see.
func TestClock_MatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		threshold := uint32(rng.Intn(20) + 1)
		c := New(threshold)

		var model uint32
		var want uint64
		for op := 0; op < 5000; op++ {
			if rng.Intn(3) > 0 {
				c.Tick()
				model++
				continue
			}
			fired := c.Take()
			if model >= threshold {
				require.True(t, fired, "round %d op %d", round, op)
				model = 0
				want++
			} else {
				require.False(t, fired, "round %d op %d", round, op)
			}
			require.Equal(t, model, c.Count())
		}
		assert.Equal(t, want, c.Refreshes())
	}
}

// TestClock_ConcurrentCrossings runs the tick source in its own goroutine.
// Each batch of threshold ticks must yield exactly one refresh regardless of
// how the polls interleave with the ticks.
func TestClock_ConcurrentCrossings(t *testing.T) {
	const (
		threshold = 50
		batches   = 200
	)
	c := New(threshold)

	observed := make(chan struct{})
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for b := 0; b < batches; b++ {
			for i := 0; i < threshold; i++ {
				c.Tick()
			}
			<-observed
		}
	}()

	var fired int
	for {
		select {
		case <-done:
			wg.Wait()
			assert.Equal(t, batches, fired)
			assert.False(t, c.Take())
			assert.Equal(t, uint64(batches), c.Refreshes())
			return
		default:
		}
		if c.Take() {
			fired++
			observed <- struct{}{}
		}
	}
}

// TestClock_StreamingTicks keeps the poller busy while ticks stream in.
func TestClock_StreamingTicks(t *testing.T) {
	const ticks = 100000
	c := New(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < ticks; i++ {
			c.Tick()
		}
	}()

	stop := make(chan struct{})
	var polls sync.WaitGroup
	polls.Add(1)
	go func() {
		defer polls.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c.Take()
			}
		}
	}()

	wg.Wait()
	close(stop)
	polls.Wait()

	assert.LessOrEqual(t, c.Refreshes()+uint64(c.Count()), uint64(ticks))
	assert.Greater(t, c.Refreshes()+uint64(c.Count()), uint64(0))
}

func TestOverflowPeriod(t *testing.T) {
	// 8 MHz internal oscillator, 1:8 prescaler, 8-bit timer.
	assert.Equal(t, 1024*time.Microsecond, OverflowPeriod(8_000_000, 8))
	assert.Equal(t, time.Duration(0), OverflowPeriod(0, 8))
}
