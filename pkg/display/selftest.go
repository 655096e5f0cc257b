package display

import (
	"time"

	"github.com/itohio/tempseg/pkg/segment"
)

// SelfTest lights every bus bit on every digit in turn, holding each for step.
// Only one digit is enabled at any time. The bus is left blank.
func SelfTest(bus Bus, delayer Delayer, step time.Duration) {
	if delayer == nil {
		delayer = Sleep{}
	}
	for pos := 0; pos < Positions; pos++ {
		bus.WriteSegments(0)
		bus.Enable(pos)
		for bit := 0; bit < segment.NumSegments; bit++ {
			bus.WriteSegments(segment.Pattern(1 << bit))
			delayer.Delay(step)
		}
		bus.Disable(pos)
	}
	bus.WriteSegments(0)
}

// DigitTest shows every digit 0-9 on all positions in turn, each for about
// hold. A digit gets at least one pass.
func (m *Multiplexer) DigitTest(hold time.Duration) {
	passes := 1
	if pass := m.PassDuration(); pass > 0 && hold > pass {
		passes = int(hold / pass)
	}
	for d := uint8(0); d <= 9; d++ {
		digits := [Positions]uint8{d, d, d, d}
		for i := 0; i < passes; i++ {
			m.RenderDigits(digits, NoDecimalPoint)
		}
	}
}
