package uart

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
)

// Transport sends bytes over the serial link.
type Transport interface {
	Send(data []byte) error
}

// WriterTransport sends to any io.Writer.
type WriterTransport struct {
	W io.Writer
}

func (t WriterTransport) Send(data []byte) error {
	_, err := t.W.Write(data)
	return err
}

const dataAvailable = 1 << 8

// Receiver is the single-character receive slot shared between the
// receive interrupt and the main loop. The character and its
// data-available flag live in one word so they are published and
// consumed together.
type Receiver struct {
	slot     atomic.Uint32
	received atomic.Uint64
	overruns atomic.Uint64
}

// Deposit stores c and raises the data-available flag.
// An unconsumed character is overwritten and counted as an overrun.
func (r *Receiver) Deposit(c byte) {
	old := r.slot.Swap(dataAvailable | uint32(c))
	r.received.Add(1)
	if old&dataAvailable != 0 {
		r.overruns.Add(1)
	}
}

// Take returns the pending character and clears the flag.
func (r *Receiver) Take() (byte, bool) {
	v := r.slot.Swap(0)
	return byte(v), v&dataAvailable != 0
}

// Pending reports whether a character is waiting.
func (r *Receiver) Pending() bool {
	return r.slot.Load()&dataAvailable != 0
}

// Received returns the number of deposited characters.
func (r *Receiver) Received() uint64 {
	return r.received.Load()
}

// Overruns returns the number of characters lost to a newer one.
func (r *Receiver) Overruns() uint64 {
	return r.overruns.Load()
}

// Buffer is an in-memory Transport.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	err error
}

// Send appends data, or fails with the configured error.
func (b *Buffer) Send(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.buf.Write(data)
	return nil
}

// FailWith makes subsequent sends return err.
func (b *Buffer) FailWith(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// String returns everything sent so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset discards everything sent so far.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}
