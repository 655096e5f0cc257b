//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/display"
	"github.com/itohio/tempseg/pkg/reading"
	"github.com/itohio/tempseg/pkg/segment"
)

var uart = machine.UART0

// gpioBus drives the segment bus and the digit enables.
type gpioBus struct{}

func (gpioBus) WriteSegments(p segment.Pattern) {
	for bit, pin := range segmentPins {
		pin.Set(p&(1<<bit) != 0)
	}
}

func (gpioBus) Enable(pos int) {
	enablePins[pos].High()
}

func (gpioBus) Disable(pos int) {
	enablePins[pos].Low()
}

// uartTransport writes whole buffers to the UART.
type uartTransport struct{}

func (uartTransport) Send(data []byte) error {
	_, err := uart.Write(data)
	return err
}

// sensorADC converts synchronously and delivers the result as an interrupt.
type sensorADC struct {
	adc     machine.ADC
	convert func(raw uint16)
}

func (s *sensorADC) Trigger() {
	// machine.ADC.Get returns a left-aligned 16-bit value.
	s.convert(s.adc.Get() >> (16 - ADC_RESOLUTION))
}

// pollingDwell spins for the dwell time and services the timer and the UART
// while it does, so no interrupt source waits longer than one poll.
type pollingDwell struct {
	handles  core.Handles
	lastTick time.Time
}

func (p *pollingDwell) Delay(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		now := time.Now()
		p.poll(now)
		if !now.Before(deadline) {
			return
		}
	}
}

func (p *pollingDwell) poll(now time.Time) {
	for now.Sub(p.lastTick) >= TICK_PERIOD {
		p.lastTick = p.lastTick.Add(TICK_PERIOD)
		p.handles.Overflow()
	}
	for uart.Buffered() > 0 {
		c, err := uart.ReadByte()
		if err != nil {
			break
		}
		p.handles.Receive(c)
	}
}

func main() {
	for _, pin := range segmentPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}
	for _, pin := range enablePins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	machine.InitADC()
	sensor := &sensorADC{adc: machine.ADC{Pin: PIN_SENSOR}}
	sensor.adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	dwell := &pollingDwell{lastTick: time.Now()}
	layout := segment.DefaultLayout

	fw := core.New(core.Hardware{
		Bus:    gpioBus{},
		ADC:    sensor,
		Serial: uartTransport{},
	}, core.Config{
		Threshold:  REFRESH_TICKS,
		Resolution: ADC_RESOLUTION,
		Scale: reading.Scale{
			VoltsPerCount: float64(ADC_REFERENCE) / 1000 / (1 << ADC_RESOLUTION),
			VoltsPerUnit:  reading.DefaultVoltsPerUnit,
		},
		Display: display.Config{
			Layout:  &layout,
			Dwell:   DIGIT_DWELL,
			Delayer: dwell,
		},
	})

	dwell.handles = fw.Handles()
	sensor.convert = dwell.handles.Convert

	fw.Run(context.Background())
}
