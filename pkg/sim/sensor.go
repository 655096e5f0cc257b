package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/tempseg/pkg/reading"
)

// SensorConfig describes a simulated temperature sensor.
type SensorConfig struct {
	Base      float64       // mean temperature
	Amplitude float64       // swing around Base
	Period    time.Duration // swing period, zero for a constant temperature
	Noise     float64       // peak uniform noise, in degrees
	Scale     reading.Scale // sensor and converter transfer function
	MaxRaw    uint16        // converter full scale
}

// Sensor is an analog temperature sensor feeding the converter.
type Sensor struct {
	cfg   SensorConfig
	start time.Time
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSensor creates a sensor whose swing starts now.
func NewSensor(cfg SensorConfig) *Sensor {
	if cfg.MaxRaw == 0 {
		cfg.MaxRaw = 1023
	}
	return &Sensor{
		cfg:   cfg,
		start: time.Now(),
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Temperature returns the noiseless temperature at t.
func (s *Sensor) Temperature(t time.Time) float64 {
	if s.cfg.Period <= 0 {
		return s.cfg.Base
	}
	phase := 2 * math.Pi * t.Sub(s.start).Seconds() / s.cfg.Period.Seconds()
	return s.cfg.Base + s.cfg.Amplitude*math.Sin(phase)
}

// Sample converts the current temperature, plus noise, to raw counts.
func (s *Sensor) Sample() uint16 {
	temp := s.Temperature(s.now())
	if s.cfg.Noise > 0 {
		s.mu.Lock()
		temp += (s.rng.Float64()*2 - 1) * s.cfg.Noise
		s.mu.Unlock()
	}
	return s.cfg.Scale.Raw(temp, s.cfg.MaxRaw)
}
