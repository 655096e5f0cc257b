//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Segment bus, bit 0 first. The bit order is segment.DefaultLayout.
	PIN_SEG0 = machine.GP2
	PIN_SEG1 = machine.GP3
	PIN_SEG2 = machine.GP4
	PIN_SEG3 = machine.GP5
	PIN_SEG4 = machine.GP6
	PIN_SEG5 = machine.GP7
	PIN_SEG6 = machine.GP8
	PIN_SEG7 = machine.GP9

	// Digit enables, most significant digit first. Active high.
	PIN_EN0 = machine.GP10
	PIN_EN1 = machine.GP11
	PIN_EN2 = machine.GP12
	PIN_EN3 = machine.GP13

	// Temperature sensor input
	PIN_SENSOR = machine.ADC0

	// ADC configuration
	ADC_RESOLUTION = 10   // bits kept from each conversion
	ADC_REFERENCE  = 5000 // reference in millivolts

	// Timer overflow period: 8 MHz / 4 / 8 prescaler / 256 counts
	TICK_PERIOD = 1024 * time.Microsecond
	// Overflows between cache refreshes (~0.5 s)
	REFRESH_TICKS = 500

	// Per-digit dwell
	DIGIT_DWELL = 5 * time.Millisecond

	UART_BAUD_RATE = 9600
)

var (
	segmentPins = [8]machine.Pin{PIN_SEG0, PIN_SEG1, PIN_SEG2, PIN_SEG3, PIN_SEG4, PIN_SEG5, PIN_SEG6, PIN_SEG7}
	enablePins  = [4]machine.Pin{PIN_EN0, PIN_EN1, PIN_EN2, PIN_EN3}
)
