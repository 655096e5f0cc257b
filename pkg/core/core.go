package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/itohio/tempseg/pkg/adc"
	"github.com/itohio/tempseg/pkg/clock"
	"github.com/itohio/tempseg/pkg/display"
	"github.com/itohio/tempseg/pkg/irq"
	"github.com/itohio/tempseg/pkg/reading"
	"github.com/itohio/tempseg/pkg/uart"
)

const (
	// Banner is sent once the peripherals are configured.
	Banner = "\r\nProgram start\n\r"
	// DumpCommand requests one diagnostic line.
	DumpCommand = 'd'
)

// Config configures the firmware core.
type Config struct {
	Threshold  uint32 // timer overflows between cache refreshes
	Resolution uint8  // converter bits
	Scale      reading.Scale
	Display    display.Config
	// OnError receives non-fatal faults: rejected conversions and failed sends.
	OnError func(err error)
}

// Hardware is what the core drives.
type Hardware struct {
	Bus    display.Bus
	ADC    adc.Trigger
	Serial uart.Transport
	// IRQ is the interrupt dispatcher. A new one is created when nil.
	IRQ *irq.Controller
}

// Handles are the interrupt lines a hardware driver pulls. Each one latches
// the peripheral register and raises its interrupt source.
type Handles struct {
	Receive  func(c byte)
	Convert  func(raw uint16)
	Overflow func()
}

// Stats are main loop counters.
type Stats struct {
	Steps      uint64
	Refreshes  uint64
	Dumps      uint64
	Commands   uint64
	SendErrors uint64
	Passes     uint64
	ADC        adc.Stats
}

// Firmware owns all sensor and display state. The main loop calls Step;
// interrupt handlers only reach the fields they write.
type Firmware struct {
	clock   *clock.Clock
	adc     *adc.Controller
	cache   reading.Cache
	rx      uart.Receiver
	mux     *display.Multiplexer
	serial  uart.Transport
	irq     *irq.Controller
	scale   reading.Scale
	onError func(err error)

	// Peripheral data registers, written by the hardware before it raises an interrupt.
	rcreg atomic.Uint32
	adres atomic.Uint32

	line       []byte
	steps      atomic.Uint64
	dumps      atomic.Uint64
	commands   atomic.Uint64
	sendErrors atomic.Uint64
}

// New wires the core to hw and registers its interrupt handlers.
func New(hw Hardware, cfg Config) *Firmware {
	if cfg.Scale.VoltsPerUnit == 0 {
		cfg.Scale = reading.DefaultScale()
	}
	ic := hw.IRQ
	if ic == nil {
		ic = irq.New()
	}

	f := &Firmware{
		clock:   clock.New(cfg.Threshold),
		adc:     adc.New(hw.ADC, cfg.Resolution),
		mux:     display.New(hw.Bus, cfg.Display),
		serial:  hw.Serial,
		irq:     ic,
		scale:   cfg.Scale,
		onError: cfg.OnError,
		line:    make([]byte, 0, 32),
	}

	ic.Register(irq.RX, func() {
		f.rx.Deposit(byte(f.rcreg.Load()))
	})
	ic.Register(irq.ADC, func() {
		f.adc.Complete(uint16(f.adres.Load()))
	})
	ic.Register(irq.Timer, f.clock.Tick)

	return f
}

// Handles returns the interrupt lines for hardware drivers.
func (f *Firmware) Handles() Handles {
	return Handles{
		Receive: func(c byte) {
			f.rcreg.Store(uint32(c))
			f.irq.Raise(irq.RX)
		},
		Convert: func(raw uint16) {
			f.adres.Store(uint32(raw))
			f.irq.Raise(irq.ADC)
		},
		Overflow: func() {
			f.irq.Raise(irq.Timer)
		},
	}
}

// Boot announces the firmware, waits for the first conversion and seeds the cache.
func (f *Firmware) Boot(ctx context.Context) error {
	if err := f.send([]byte(Banner)); err != nil {
		return fmt.Errorf("failed to send banner: %w", err)
	}
	if err := f.adc.Start(); err != nil && !errors.Is(err, adc.ErrConversionInFlight) {
		return err
	}
	if err := f.adc.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for first conversion: %w", err)
	}
	f.refresh()
	return nil
}

// Run boots and then steps the main loop until ctx is done.
func (f *Firmware) Run(ctx context.Context) error {
	if err := f.Boot(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			f.Step()
		}
	}
}

// Step runs one main loop iteration. It blocks for one display pass.
func (f *Firmware) Step() {
	f.steps.Add(1)

	if f.clock.Take() {
		f.refresh()
	}

	if c, ok := f.rx.Take(); ok {
		f.commands.Add(1)
		if c == DumpCommand {
			f.dump()
		}
	}

	f.mux.Render(f.cache.Load())

	f.irq.Mask()
	var err error
	if !f.adc.InFlight() {
		err = f.adc.Start()
	}
	f.irq.Unmask()
	if err != nil {
		f.fault(err)
	}
}

// Reading returns the cached scaled reading.
func (f *Firmware) Reading() float64 {
	return f.cache.Load()
}

// Raw returns the latest converter result.
func (f *Firmware) Raw() uint16 {
	return f.adc.Raw()
}

// Clock returns the sample clock.
func (f *Firmware) Clock() *clock.Clock {
	return f.clock
}

// Multiplexer returns the display driver.
func (f *Firmware) Multiplexer() *display.Multiplexer {
	return f.mux
}

// Stats returns a snapshot of the counters.
func (f *Firmware) Stats() Stats {
	return Stats{
		Steps:      f.steps.Load(),
		Refreshes:  f.cache.Updates(),
		Dumps:      f.dumps.Load(),
		Commands:   f.commands.Load(),
		SendErrors: f.sendErrors.Load(),
		Passes:     f.mux.Passes(),
		ADC:        f.adc.Stats(),
	}
}

// FormatDump formats the diagnostic line for v.
func FormatDump(dst []byte, v float64) []byte {
	return fmt.Appendf(dst, "temp: %f\r", v)
}

// refresh scales the latest result with interrupts masked, so a completion
// cannot replace it while it is read.
func (f *Firmware) refresh() {
	f.irq.Mask()
	raw := f.adc.Raw()
	f.irq.Unmask()
	f.cache.Store(f.scale.Apply(raw))
}

func (f *Firmware) dump() {
	f.line = FormatDump(f.line[:0], f.cache.Load())
	if err := f.send(f.line); err != nil {
		f.fault(fmt.Errorf("failed to send dump: %w", err))
		return
	}
	f.dumps.Add(1)
}

func (f *Firmware) send(data []byte) error {
	if f.serial == nil {
		return nil
	}
	if err := f.serial.Send(data); err != nil {
		f.sendErrors.Add(1)
		return err
	}
	return nil
}

func (f *Firmware) fault(err error) {
	if f.onError != nil {
		f.onError(err)
	}
}
