package monitor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/itohio/tempseg/pkg/board"
	"github.com/itohio/tempseg/pkg/config"
	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/logger"
	"github.com/itohio/tempseg/pkg/sim"
	"github.com/itohio/tempseg/pkg/uart"
)

// Loopback runs a simulated board in-process and talks to it through a pipe.
type Loopback struct {
	cfg    *config.Config
	source sim.Source

	readings  chan Reading
	mu        sync.RWMutex
	cancel    context.CancelFunc
	pr        *io.PipeReader
	board     *board.Board
	done      chan struct{} // closed when the board stops
	readDone  chan struct{} // closed when the reader stops
	connected bool
}

// NewLoopback creates a simulated device. When src is nil the configured sensor is used.
func NewLoopback(cfg *config.Config, src sim.Source) *Loopback {
	if cfg == nil {
		cfg = config.Default()
	}
	readings := make(chan Reading)
	close(readings)
	return &Loopback{
		cfg:      cfg,
		source:   src,
		readings: readings,
	}
}

// Connect boots the simulated board. Each connection gets a fresh readings channel.
func (l *Loopback) Connect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return fmt.Errorf("already connected")
	}

	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	l.pr = pr
	l.cancel = cancel
	l.board = board.New(l.cfg, uart.WriterTransport{W: pw}, l.source)
	l.readings = make(chan Reading, DefaultBufferSize)
	l.done = make(chan struct{})
	l.readDone = make(chan struct{})
	l.connected = true

	go func(out chan<- Reading, done chan<- struct{}) {
		defer close(done)
		readLines(ctx, pr, out)
	}(l.readings, l.readDone)
	go func() {
		defer close(l.done)
		defer pw.Close()
		if err := l.board.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Simulated board stopped")
		}
	}()

	return nil
}

// Close stops the simulated board and waits for the reader. The readings channel is closed.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return nil
	}

	l.cancel()
	l.pr.Close()
	<-l.done
	<-l.readDone
	l.connected = false

	return nil
}

// Readings returns the channel of parsed dumps for the current connection.
func (l *Loopback) Readings() <-chan Reading {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readings
}

// Request sends the dump command to the simulated board.
func (l *Loopback) Request() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.connected {
		return fmt.Errorf("not connected")
	}
	l.board.Receive(core.DumpCommand)
	return nil
}

// IsConnected returns whether the simulated board is running.
func (l *Loopback) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Display returns the text currently shown on the simulated display.
func (l *Loopback) Display() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.board == nil {
		return ""
	}
	return l.board.Bus.String()
}
