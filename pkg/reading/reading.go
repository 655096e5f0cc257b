package reading

import (
	"math"
	"sync/atomic"
)

const (
	// DefaultVoltsPerCount is a 10-bit converter on a 5 V reference.
	DefaultVoltsPerCount = 5.0 / 1024.0
	// DefaultVoltsPerUnit is a 10 mV per degree sensor.
	DefaultVoltsPerUnit = 0.010
)

// Scale converts raw counts to an engineering value.
type Scale struct {
	VoltsPerCount float64
	VoltsPerUnit  float64
}

// DefaultScale returns the board scale.
func DefaultScale() Scale {
	return Scale{
		VoltsPerCount: DefaultVoltsPerCount,
		VoltsPerUnit:  DefaultVoltsPerUnit,
	}
}

// Apply returns raw * VoltsPerCount / VoltsPerUnit.
func (s Scale) Apply(raw uint16) float64 {
	if s.VoltsPerUnit == 0 {
		return 0
	}
	return float64(raw) * s.VoltsPerCount / s.VoltsPerUnit
}

// Volts returns the input voltage for raw.
func (s Scale) Volts(raw uint16) float64 {
	return float64(raw) * s.VoltsPerCount
}

// Raw is the inverse of Apply, rounded to the nearest count and clamped to max.
func (s Scale) Raw(value float64, max uint16) uint16 {
	if s.VoltsPerCount == 0 || math.IsNaN(value) {
		return 0
	}
	counts := math.Round(value * s.VoltsPerUnit / s.VoltsPerCount)
	switch {
	case counts <= 0:
		return 0
	case counts >= float64(max):
		return max
	}
	return uint16(counts)
}

// Cache holds the most recently committed reading.
// A single writer stores, any number of readers load.
type Cache struct {
	bits    atomic.Uint64
	updates atomic.Uint64
}

// Store commits a new reading.
func (c *Cache) Store(v float64) {
	c.bits.Store(math.Float64bits(v))
	c.updates.Add(1)
}

// Load returns the committed reading.
func (c *Cache) Load() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Updates returns how many times Store was called.
func (c *Cache) Updates() uint64 {
	return c.updates.Load()
}
