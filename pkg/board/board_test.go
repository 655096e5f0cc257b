package board

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/itohio/tempseg/pkg/config"
	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/sim"
	"github.com/itohio/tempseg/pkg/uart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sampling.Threshold = 2
	cfg.Sampling.TickPeriod = time.Millisecond
	cfg.Sampling.VoltsPerUnit = 0.1
	cfg.Display.Dwell = 100 * time.Microsecond
	cfg.Simulation.ConversionTime = 10 * time.Microsecond
	return cfg
}

func TestBoard_Run(t *testing.T) {
	serial := &uart.Buffer{}
	b := New(testConfig(), serial, sim.Constant(0x2A0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Bus.String() == "32.81" }, 2*time.Second, time.Millisecond)

	b.Receive(core.DumpCommand)
	require.Eventually(t, func() bool { return strings.Contains(serial.String(), "temp: 32.812500\r") }, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("board did not stop")
	}

	assert.True(t, strings.HasPrefix(serial.String(), core.Banner))
	assert.Zero(t, b.Bus.Violations())
	assert.Greater(t, b.Timer.Overflows(), uint64(0))
}

func TestBoard_SimulatedSensor(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Temperature = 21.5
	cfg.Simulation.Amplitude = 0
	cfg.Simulation.Noise = 0

	b := New(cfg, &uart.Buffer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	// 21.5 degrees at 100 mV/degree is 440 counts, which reads back as 21.48.
	require.Eventually(t, func() bool { return b.Bus.String() == "21.48" }, 2*time.Second, time.Millisecond)

	cancel()
	<-done
}
