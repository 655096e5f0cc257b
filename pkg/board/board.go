package board

import (
	"context"

	"github.com/itohio/tempseg/pkg/config"
	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/display"
	"github.com/itohio/tempseg/pkg/logger"
	"github.com/itohio/tempseg/pkg/sim"
	"github.com/itohio/tempseg/pkg/uart"
)

// Board is the firmware core running on simulated hardware.
type Board struct {
	Firmware *core.Firmware
	Bus      *sim.Recorder
	ADC      *sim.ADC
	Timer    *sim.Timer
}

// New assembles a board from cfg. Dumps and the banner go to serial.
// When src is nil the configured simulated sensor is used.
func New(cfg *config.Config, serial uart.Transport, src sim.Source) *Board {
	layout := cfg.Layout()

	if src == nil {
		src = sim.NewSensor(sim.SensorConfig{
			Base:      cfg.Simulation.Temperature,
			Amplitude: cfg.Simulation.Amplitude,
			Period:    cfg.Simulation.Period,
			Noise:     cfg.Simulation.Noise,
			Scale:     cfg.Scale(),
			MaxRaw:    uint16(uint32(1)<<cfg.Sampling.Resolution - 1),
		})
	}

	var delayer display.Delayer = display.Sleep{}
	if cfg.Display.BusyWait {
		delayer = display.BusyWait{}
	}

	b := &Board{
		Bus: sim.NewRecorder(layout),
		ADC: sim.NewADC(src, cfg.Simulation.ConversionTime),
	}
	b.Firmware = core.New(core.Hardware{
		Bus:    b.Bus,
		ADC:    b.ADC,
		Serial: serial,
	}, core.Config{
		Threshold:  cfg.Sampling.Threshold,
		Resolution: cfg.Sampling.Resolution,
		Scale:      cfg.Scale(),
		Display: display.Config{
			Layout:  &layout,
			Dwell:   cfg.Display.Dwell,
			Delayer: delayer,
			OnFault: func(pos int, err error) {
				logger.Error().Err(err).Int("position", pos).Msg("Digit clamped")
			},
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("Firmware fault")
		},
	})

	h := b.Firmware.Handles()
	b.ADC.Attach(h.Convert)
	b.Timer = sim.NewTimer(cfg.Sampling.TickPeriod, h.Overflow)

	return b
}

// Receive delivers a character as if it arrived on the UART.
func (b *Board) Receive(c byte) {
	b.Firmware.Handles().Receive(c)
}

// Run starts the timer and the main loop until ctx is done.
// It returns once the timer and any pending conversion have stopped.
func (b *Board) Run(ctx context.Context) error {
	b.Timer.Start(ctx)
	defer func() {
		b.Timer.Stop()
		b.ADC.Wait()
	}()

	logger.Debug().
		Uint32("threshold", b.Firmware.Clock().Threshold()).
		Dur("pass", b.Firmware.Multiplexer().PassDuration()).
		Msg("Board running")

	return b.Firmware.Run(ctx)
}
