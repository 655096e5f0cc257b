package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/tempseg/pkg/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, uint32(500), cfg.Sampling.Threshold)
	assert.Equal(t, uint8(10), cfg.Sampling.Resolution)
	assert.Equal(t, 5.0/1024.0, cfg.Sampling.VoltsPerCount)
	assert.Equal(t, 0.010, cfg.Sampling.VoltsPerUnit)
	assert.Equal(t, 5*time.Millisecond, cfg.Display.Dwell)
	assert.Equal(t, segment.DefaultLayout, cfg.Layout())
	assert.Equal(t, 512*time.Millisecond, cfg.RefreshPeriod())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 115200

sampling:
  threshold: 250
  tick_period: 2ms
  resolution: 12
  volts_per_count: 0.0008056640625
  volts_per_unit: 0.1

display:
  dwell: 1ms
  busy_wait: true
  layout: {a: 0, b: 1, c: 2, d: 3, e: 4, f: 5, g: 6, dp: 7}

simulation:
  temperature: 40
  noise: 0
  conversion_time: 1ms

log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, uint32(250), cfg.Sampling.Threshold)
	assert.Equal(t, 2*time.Millisecond, cfg.Sampling.TickPeriod)
	assert.Equal(t, uint8(12), cfg.Sampling.Resolution)
	assert.Equal(t, 0.1, cfg.Scale().VoltsPerUnit)
	assert.Equal(t, time.Millisecond, cfg.Display.Dwell)
	assert.True(t, cfg.Display.BusyWait)
	assert.Equal(t, segment.Layout{0, 1, 2, 3, 4, 5, 6, 7}, cfg.Layout())
	assert.Equal(t, 40.0, cfg.Simulation.Temperature)
	assert.Equal(t, time.Millisecond, cfg.Simulation.ConversionTime)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshPeriod())
}

func TestLoad_PartialYAML(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: "COM7"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.Equal(t, def.Serial.BaudRate, cfg.Serial.BaudRate)
	assert.Equal(t, def.Sampling, cfg.Sampling)
	assert.Equal(t, def.Display.Layout, cfg.Display.Layout)
	assert.Equal(t, def.Log.Level, cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "serial: [not, a, map")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "duplicate layout bit",
			content: "display:\n  layout: {a: 0, b: 0, c: 2, d: 3, e: 4, f: 5, g: 6, dp: 7}\n",
			want:    "invalid display layout",
		},
		{
			name:    "log level",
			content: "log:\n  level: verbose\n",
			want:    "invalid log level",
		},
		{
			name:    "resolution",
			content: "sampling:\n  resolution: 24\n",
			want:    "invalid resolution",
		},
		{
			name:    "negative scale",
			content: "sampling:\n  volts_per_unit: -1\n",
			want:    "invalid scale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyS1"
	cfg.Sampling.Threshold = 42
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
