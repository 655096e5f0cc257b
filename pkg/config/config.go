package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/tempseg/pkg/reading"
	"github.com/itohio/tempseg/pkg/segment"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Display    DisplayConfig    `yaml:"display"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SamplingConfig contains the acquisition parameters.
type SamplingConfig struct {
	Threshold     uint32        `yaml:"threshold"`       // timer overflows per cache refresh
	TickPeriod    time.Duration `yaml:"tick_period"`     // timer overflow period
	Resolution    uint8         `yaml:"resolution"`      // converter bits
	VoltsPerCount float64       `yaml:"volts_per_count"` // converter step (V)
	VoltsPerUnit  float64       `yaml:"volts_per_unit"`  // sensor gain (V per degree)
}

// DisplayConfig contains the multiplexer parameters.
type DisplayConfig struct {
	Dwell    time.Duration `yaml:"dwell"`     // per-digit hold time
	BusyWait bool          `yaml:"busy_wait"` // spin instead of sleeping during dwell
	Layout   LayoutConfig  `yaml:"layout"`
}

// LayoutConfig maps each segment to its bit on the segment bus.
type LayoutConfig struct {
	A  uint8 `yaml:"a"`
	B  uint8 `yaml:"b"`
	C  uint8 `yaml:"c"`
	D  uint8 `yaml:"d"`
	E  uint8 `yaml:"e"`
	F  uint8 `yaml:"f"`
	G  uint8 `yaml:"g"`
	DP uint8 `yaml:"dp"`
}

// SimulationConfig contains the simulated sensor and converter.
type SimulationConfig struct {
	Temperature    float64       `yaml:"temperature"`     // mean temperature
	Amplitude      float64       `yaml:"amplitude"`       // swing around the mean
	Period         time.Duration `yaml:"period"`          // swing period
	Noise          float64       `yaml:"noise"`           // peak noise (degrees)
	ConversionTime time.Duration `yaml:"conversion_time"` // converter latency
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Default returns a default configuration matching the board.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 9600,
		},
		Sampling: SamplingConfig{
			Threshold:     500,
			TickPeriod:    1024 * time.Microsecond, // 8 MHz, 1:8 prescaler, 8-bit timer
			Resolution:    10,
			VoltsPerCount: reading.DefaultVoltsPerCount,
			VoltsPerUnit:  reading.DefaultVoltsPerUnit,
		},
		Display: DisplayConfig{
			Dwell:    5 * time.Millisecond,
			BusyWait: false,
			Layout:   layoutConfig(segment.DefaultLayout),
		},
		Simulation: SimulationConfig{
			Temperature:    23.5,
			Amplitude:      2,
			Period:         30 * time.Second,
			Noise:          0.2,
			ConversionTime: 20 * time.Microsecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.Sampling.Resolution > 16 {
		return fmt.Errorf("invalid resolution %d: at most 16 bits", c.Sampling.Resolution)
	}
	if c.Sampling.VoltsPerCount < 0 || c.Sampling.VoltsPerUnit < 0 {
		return fmt.Errorf("invalid scale %g/%g: must be positive", c.Sampling.VoltsPerCount, c.Sampling.VoltsPerUnit)
	}
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("invalid display layout: %w", err)
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

// Scale returns the raw-to-reading transform.
func (c *Config) Scale() reading.Scale {
	return reading.Scale{
		VoltsPerCount: c.Sampling.VoltsPerCount,
		VoltsPerUnit:  c.Sampling.VoltsPerUnit,
	}
}

// Layout returns the segment bus wiring.
func (c *Config) Layout() segment.Layout {
	l := c.Display.Layout
	return segment.Layout{
		segment.A:  l.A,
		segment.B:  l.B,
		segment.C:  l.C,
		segment.D:  l.D,
		segment.E:  l.E,
		segment.F:  l.F,
		segment.G:  l.G,
		segment.DP: l.DP,
	}
}

// RefreshPeriod is how often the cached reading is refreshed.
func (c *Config) RefreshPeriod() time.Duration {
	return time.Duration(c.Sampling.Threshold) * c.Sampling.TickPeriod
}

func layoutConfig(l segment.Layout) LayoutConfig {
	return LayoutConfig{
		A:  l[segment.A],
		B:  l[segment.B],
		C:  l[segment.C],
		D:  l[segment.D],
		E:  l[segment.E],
		F:  l[segment.F],
		G:  l[segment.G],
		DP: l[segment.DP],
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sampling.Threshold == 0 {
		c.Sampling.Threshold = def.Sampling.Threshold
	}
	if c.Sampling.TickPeriod == 0 {
		c.Sampling.TickPeriod = def.Sampling.TickPeriod
	}
	if c.Sampling.Resolution == 0 {
		c.Sampling.Resolution = def.Sampling.Resolution
	}
	if c.Sampling.VoltsPerCount == 0 {
		c.Sampling.VoltsPerCount = def.Sampling.VoltsPerCount
	}
	if c.Sampling.VoltsPerUnit == 0 {
		c.Sampling.VoltsPerUnit = def.Sampling.VoltsPerUnit
	}

	if c.Display.Dwell == 0 {
		c.Display.Dwell = def.Display.Dwell
	}
	// An all-zero layout means the section was left out.
	if c.Display.Layout == (LayoutConfig{}) {
		c.Display.Layout = def.Display.Layout
	}

	if c.Simulation.ConversionTime == 0 {
		c.Simulation.ConversionTime = def.Simulation.ConversionTime
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
