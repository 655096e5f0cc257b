package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/tempseg/pkg/board"
	"github.com/itohio/tempseg/pkg/config"
	"github.com/itohio/tempseg/pkg/display"
	"github.com/itohio/tempseg/pkg/logger"
	"github.com/itohio/tempseg/pkg/uart"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configFlag   = pflag.StringP("config", "c", "config.yaml", "Configuration file path")
		portFlag     = pflag.StringP("port", "p", "", "Serial port for banner and dumps (default stdout)")
		baudFlag     = pflag.IntP("baud", "b", 0, "Serial baud rate (overrides config)")
		logLevelFlag = pflag.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
		guiFlag      = pflag.Bool("gui", false, "Show the display in a window")
		selfTestFlag = pflag.Bool("selftest", false, "Walk every segment and digit before starting")
		listFlag     = pflag.Bool("list", false, "List serial ports and exit")
		intervalFlag = pflag.Duration("interval", 250*time.Millisecond, "Terminal display refresh interval")
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

	if err := logger.Init(os.Stderr, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if *listFlag {
		ports, err := uart.Ports()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to list serial ports")
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := newSimulator(cfg, *portFlag != "")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start simulator")
	}
	defer sim.close()

	if *selfTestFlag {
		logger.Info().Msg("Running segment self-test")
		display.SelfTest(sim.board.Bus, display.Sleep{}, cfg.Display.Dwell*10)
		sim.board.Firmware.Multiplexer().DigitTest(250 * time.Millisecond)
	}

	logger.Info().
		Str("serial", sim.serialName()).
		Dur("refresh", cfg.RefreshPeriod()).
		Float64("temperature", cfg.Simulation.Temperature).
		Msg("Simulator started")

	if *guiFlag {
		runGUI(ctx, stop, sim)
	} else {
		runTerminal(ctx, sim, *intervalFlag)
	}

	stats := sim.board.Firmware.Stats()
	logger.Info().
		Uint64("steps", stats.Steps).
		Uint64("refreshes", stats.Refreshes).
		Uint64("dumps", stats.Dumps).
		Uint64("violations", sim.board.Bus.Violations()).
		Msg("Simulator stopped")
}

// simulator is a board plus the serial line it talks on.
type simulator struct {
	board    *board.Board
	port     *uart.Port
	portName string
	done     chan error
}

func newSimulator(cfg *config.Config, useSerial bool) (*simulator, error) {
	s := &simulator{done: make(chan error, 1)}

	var transport uart.Transport = uart.WriterTransport{W: os.Stdout}
	if useSerial {
		s.port = uart.NewPort(cfg.Serial.Port, cfg.Serial.BaudRate)
		s.portName = cfg.Serial.Port
		transport = s.port
	}

	s.board = board.New(cfg, transport, nil)

	if s.port != nil {
		if err := s.port.Connect(s.board.Receive); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.Serial.Port, err)
		}
	}
	return s, nil
}

func (s *simulator) serialName() string {
	if s.port == nil {
		return "stdout"
	}
	return s.portName
}

// run starts the board; its result is delivered on s.done.
func (s *simulator) run(ctx context.Context) {
	go func() {
		err := s.board.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.done <- err
	}()
}

func (s *simulator) wait() {
	if err := <-s.done; err != nil {
		logger.Error().Err(err).Msg("Board stopped")
	}
}

func (s *simulator) close() {
	if s.port == nil {
		return
	}
	if err := s.port.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close serial port")
	}
}

// feedInput delivers bytes from r to receive one at a time, like a UART
// receive interrupt, until r fails or ends.
func feedInput(r io.Reader, receive func(c byte)) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			receive(buf[0])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn().Err(err).Msg("Input stopped")
			}
			return
		}
	}
}

// runTerminal prints the latched display until ctx is done.
// Without a serial port, stdin is the board's receive line.
func runTerminal(ctx context.Context, s *simulator, interval time.Duration) {
	s.run(ctx)
	if s.port == nil {
		go feedInput(os.Stdin, s.board.Receive)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			s.wait()
			return
		case <-ticker.C:
			shown := s.board.Bus.String()
			if shown != last {
				logger.Info().Str("display", shown).Uint16("raw", s.board.Firmware.Raw()).Msg("Display")
				last = shown
			}
		}
	}
}
