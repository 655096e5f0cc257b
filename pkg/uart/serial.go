package uart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the board UART setup.
	DefaultBaudRate = 9600
	// readTimeout bounds how long a read blocks so Close is noticed.
	readTimeout = 100 * time.Millisecond
)

// Port is a Transport over a host serial port. Every received byte is
// handed to the receive callback, which plays the role of the receive interrupt.
type Port struct {
	name     string
	baudRate int

	conn      serial.Port
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// NewPort creates a Port for the named device.
func NewPort(name string, baudRate int) *Port {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Port{
		name:     name,
		baudRate: baudRate,
	}
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the port and starts delivering received bytes to onReceive.
func (p *Port) Connect(onReceive func(c byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return errors.New("already connected")
	}

	conn, err := serial.Open(p.name, &serial.Mode{
		BaudRate: p.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.name, err)
	}
	if err := conn.SetReadTimeout(readTimeout); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", p.name, err)
	}

	p.conn = conn
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})
	p.connected = true

	go p.readLoop(p.ctx, conn, onReceive, p.done)

	return nil
}

// Send writes data to the port.
func (p *Port) Send(data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.connected {
		return errors.New("not connected")
	}
	if _, err := p.conn.Write(data); err != nil {
		return fmt.Errorf("failed to write to %s: %w", p.name, err)
	}
	return nil
}

// IsConnected reports whether the port is open.
func (p *Port) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Close stops the reader and closes the port.
func (p *Port) Close() error {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	conn := p.conn
	done := p.done
	p.conn = nil
	p.connected = false
	p.mu.Unlock()

	<-done
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", p.name, err)
	}
	return nil
}

func (p *Port) readLoop(ctx context.Context, conn serial.Port, onReceive func(c byte), done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if onReceive == nil {
			continue
		}
		for _, c := range buf[:n] {
			onReceive(c)
		}
	}
}
