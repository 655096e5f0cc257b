package monitor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/logger"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the board UART.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 16

	dumpPrefix = "temp: "
)

// ErrNotDump is returned by ParseLine for lines that are not diagnostic dumps.
var ErrNotDump = errors.New("not a dump line")

// Reading is one diagnostic dump received from the board.
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// Serial is a connection to the board over a host serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	readings  chan Reading
	mu        sync.RWMutex
	cancel    context.CancelFunc
	readDone  chan struct{}
	connected bool
}

// New creates a Serial device for port. Zero values select the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	readings := make(chan Reading)
	close(readings)

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		readings: readings,
	}
}

// Connect opens the serial port and starts reading dumps.
// Each connection gets a fresh readings channel.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.conn = port
	d.cancel = cancel
	d.readings = make(chan Reading, d.bufSize)
	d.readDone = make(chan struct{})
	d.connected = true

	go func(out chan<- Reading, done chan<- struct{}) {
		defer close(done)
		readLines(ctx, port, out)
	}(d.readings, d.readDone)

	return nil
}

// Close closes the connection and waits for the reader to stop.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if err := d.conn.Close(); err != nil {
		logger.Warn().Err(err).Str("port", d.port).Msg("Error closing serial port")
	}
	d.conn = nil
	<-d.readDone

	d.connected = false

	return nil
}

// Readings returns the channel of parsed dumps for the current connection.
// It is closed when reading stops.
func (d *Serial) Readings() <-chan Reading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readings
}

// Request asks the board for one diagnostic dump.
func (d *Serial) Request() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte{core.DumpCommand}); err != nil {
		return fmt.Errorf("failed to send dump request: %w", err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines splits r into CR or LF terminated lines and forwards parsed dumps to out.
// out is closed when r is exhausted or ctx is done.
func readLines(ctx context.Context, r io.Reader, out chan<- Reading) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reading, err := ParseLine(line)
		if err != nil {
			logger.Debug().Str("line", line).Msg("Ignoring line")
			continue
		}
		reading.Timestamp = time.Now()

		select {
		case out <- reading:
		case <-ctx.Done():
			return
		default:
			logger.Warn().Float64("value", reading.Value).Msg("Readings channel full, dropping reading")
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Error reading from board")
	}
}

// scanLines is bufio.ScanLines that also ends lines at a bare CR.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ParseLine parses a diagnostic dump line.
// Format: temp: <value>
// Example: temp: 23.437500
func ParseLine(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dumpPrefix) {
		return Reading{}, fmt.Errorf("%w: %q", ErrNotDump, line)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, dumpPrefix)), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid value: %w", err)
	}

	return Reading{Value: value}, nil
}
