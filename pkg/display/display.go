package display

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/itohio/tempseg/pkg/segment"
)

const (
	// Positions is the number of physical digits.
	Positions = 4
	// DecimalPosition is the digit that carries the decimal point (two implied decimals).
	DecimalPosition = 1
	// MaxValue is the largest value the 4-digit field can show.
	MaxValue = 9999
	// DefaultDwell is how long each digit stays enabled.
	DefaultDwell = 5 * time.Millisecond

	// NoDecimalPoint disables the decimal point in RenderDigits.
	NoDecimalPoint = -1
)

// Bus is the physical output: one shared segment bus and four digit-enable lines.
type Bus interface {
	WriteSegments(p segment.Pattern)
	Enable(pos int)
	Disable(pos int)
}

// Config configures a Multiplexer. Zero values select the defaults.
type Config struct {
	Layout  *segment.Layout
	Dwell   time.Duration
	Delayer Delayer
	// OnFault is called when a digit cannot be encoded. The digit is then shown as 9.
	OnFault func(pos int, err error)
}

// Multiplexer time-slices four digits onto a single segment bus.
type Multiplexer struct {
	bus     Bus
	layout  segment.Layout
	dwell   time.Duration
	delayer Delayer
	onFault func(pos int, err error)

	passes atomic.Uint64
	faults atomic.Uint64
}

// New creates a Multiplexer driving bus.
func New(bus Bus, cfg Config) *Multiplexer {
	m := &Multiplexer{
		bus:     bus,
		layout:  segment.DefaultLayout,
		dwell:   cfg.Dwell,
		delayer: cfg.Delayer,
		onFault: cfg.OnFault,
	}
	if cfg.Layout != nil {
		m.layout = *cfg.Layout
	}
	if m.dwell <= 0 {
		m.dwell = DefaultDwell
	}
	if m.delayer == nil {
		m.delayer = BusyWait{}
	}
	return m
}

// Dwell returns the per-digit hold time.
func (m *Multiplexer) Dwell() time.Duration {
	return m.dwell
}

// PassDuration is the minimum time one Render call blocks.
func (m *Multiplexer) PassDuration() time.Duration {
	return Positions * m.dwell
}

// Passes returns the number of completed render passes.
func (m *Multiplexer) Passes() uint64 {
	return m.passes.Load()
}

// Faults returns the number of digits that failed to encode.
func (m *Multiplexer) Faults() uint64 {
	return m.faults.Load()
}

// Render shows reading with two decimals, e.g. 3.28125 as "03.28".
func (m *Multiplexer) Render(reading float64) {
	m.RenderDigits(Digits(Centi(reading)), DecimalPosition)
}

// RenderInteger shows n (saturated to 9999) without a decimal point.
func (m *Multiplexer) RenderInteger(n uint16) {
	m.RenderDigits(Digits(n), NoDecimalPoint)
}

// RenderDigits drives one full multiplexing pass, thousands first.
// dp selects the position that lights the decimal point, or NoDecimalPoint.
func (m *Multiplexer) RenderDigits(digits [Positions]uint8, dp int) {
	for pos, d := range digits {
		m.renderDigit(pos, d, pos == dp)
	}
	m.passes.Add(1)
}

func (m *Multiplexer) renderDigit(pos int, d uint8, dp bool) {
	g, err := segment.Encode(d)
	if err != nil {
		m.faults.Add(1)
		if strictDigits {
			panic(err)
		}
		if m.onFault != nil {
			m.onFault(pos, err)
		}
		g, _ = segment.Encode(9)
	}

	p := m.layout.Pattern(g)
	if dp {
		p |= m.layout.Bit(segment.DP)
	}

	m.bus.WriteSegments(0)
	m.bus.WriteSegments(p)
	m.bus.Enable(pos)
	m.delayer.Delay(m.dwell)
	m.bus.Disable(pos)
}

// Centi converts a reading to hundredths, truncating and saturating to [0, MaxValue].
func Centi(reading float64) uint16 {
	if math.IsNaN(reading) || reading <= 0 {
		return 0
	}
	// The epsilon absorbs binary representation error, so 0.29 maps to 29 and not 28.
	v := math.Floor(reading*100 + 1e-6)
	if v >= MaxValue {
		return MaxValue
	}
	return uint16(v)
}

// Digits splits n into four decimal digits, most significant first.
// Values above MaxValue saturate to 9999.
func Digits(n uint16) [Positions]uint8 {
	if n > MaxValue {
		n = MaxValue
	}
	var out [Positions]uint8
	for i, div := range [Positions]uint16{1000, 100, 10, 1} {
		q := n / div
		out[i] = uint8(q)
		n -= q * div
	}
	return out
}

// Value reassembles digits produced by Digits.
func Value(digits [Positions]uint8) uint16 {
	return uint16(digits[0])*1000 + uint16(digits[1])*100 + uint16(digits[2])*10 + uint16(digits[3])
}
