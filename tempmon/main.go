package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/tempseg/pkg/config"
	"github.com/itohio/tempseg/pkg/logger"
	"github.com/itohio/tempseg/pkg/monitor"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configFlag   = pflag.StringP("config", "c", "config.yaml", "Configuration file path")
		portFlag     = pflag.StringP("port", "p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		baudFlag     = pflag.IntP("baud", "b", 0, "Serial baud rate (overrides config)")
		intervalFlag = pflag.DurationP("interval", "i", time.Second, "Dump request interval")
		countFlag    = pflag.IntP("count", "n", 0, "Stop after this many readings (0 = run until interrupted)")
		averageFlag  = pflag.IntP("average", "a", 1, "Report the mean of the last N readings")
		mockFlag     = pflag.Bool("mock", false, "Use an in-process simulated board instead of a serial port")
		jsonFlag     = pflag.Bool("json", false, "Log as JSON lines")
		logLevelFlag = pflag.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	if *logLevelFlag != "" {
		cfg.Log.Level = *logLevelFlag
	}

	initLog := logger.Init
	if *jsonFlag {
		initLog = logger.InitJSON
	}
	if err := initLog(os.Stdout, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var device monitor.Device
	if *mockFlag {
		device = monitor.NewLoopback(cfg, nil)
	} else {
		device = monitor.New(cfg.Serial.Port, cfg.Serial.BaudRate, monitor.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		logger.Fatal().Err(err).Str("port", cfg.Serial.Port).Msg("Failed to connect")
	}
	defer func() {
		if err := device.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close device")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := poll(ctx, device, monitor.NewAverager(*averageFlag, monitor.DefaultBufferSize), *intervalFlag, *countFlag)
	logger.Info().Int("readings", n).Msg("Monitor stopped")
}

// poll requests a dump every interval and logs each reply passed through stage.
// It stops when ctx is done, when the device closes, or after count readings.
// It returns the number of readings.
func poll(ctx context.Context, device monitor.Device, stage monitor.Stage, interval time.Duration, count int) int {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	readings := stage(device.Readings())
	received := 0
	for {
		select {
		case <-ctx.Done():
			return received
		case <-ticker.C:
			if err := device.Request(); err != nil {
				logger.Warn().Err(err).Msg("Dump request failed")
			}
		case r, ok := <-readings:
			if !ok {
				return received
			}
			received++
			logger.Info().
				Time("at", r.Timestamp).
				Float64("temperature", r.Value).
				Msg("Reading")
			if count > 0 && received >= count {
				return received
			}
		}
	}
}
