package uart

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiver_TakeClears(t *testing.T) {
	var r Receiver

	_, ok := r.Take()
	assert.False(t, ok)

	r.Deposit('d')
	assert.True(t, r.Pending())

	c, ok := r.Take()
	require.True(t, ok)
	assert.Equal(t, byte('d'), c)

	_, ok = r.Take()
	assert.False(t, ok, "a character is consumed exactly once")
	assert.False(t, r.Pending())
}

func TestReceiver_ZeroByte(t *testing.T) {
	var r Receiver
	r.Deposit(0)

	c, ok := r.Take()
	assert.True(t, ok)
	assert.Equal(t, byte(0), c)
}

func TestReceiver_Overrun(t *testing.T) {
	var r Receiver
	r.Deposit('a')
	r.Deposit('d')

	c, ok := r.Take()
	require.True(t, ok)
	assert.Equal(t, byte('d'), c)
	assert.Equal(t, uint64(2), r.Received())
	assert.Equal(t, uint64(1), r.Overruns())
}

func TestReceiver_Concurrent(t *testing.T) {
	const n = 10000
	var r Receiver

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.Deposit(byte(i))
		}
	}()

	taken := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := r.Take(); ok {
			taken++
		}
		select {
		case <-done:
			if _, ok := r.Take(); ok {
				taken++
			}
			assert.Equal(t, uint64(n), uint64(taken)+r.Overruns())
			return
		default:
		}
	}
}

func TestBuffer(t *testing.T) {
	var b Buffer
	require.NoError(t, b.Send([]byte("temp: ")))
	require.NoError(t, b.Send([]byte("1.0\r")))
	assert.Equal(t, "temp: 1.0\r", b.String())

	failure := errors.New("unplugged")
	b.FailWith(failure)
	assert.ErrorIs(t, b.Send([]byte("x")), failure)

	b.Reset()
	assert.Empty(t, b.String())
}

func TestWriterTransport(t *testing.T) {
	var out bytes.Buffer
	tr := WriterTransport{W: &out}
	require.NoError(t, tr.Send([]byte("hello")))
	assert.Equal(t, "hello", out.String())
}

func TestPort_NotConnected(t *testing.T) {
	p := NewPort("/dev/does-not-exist", 0)
	assert.False(t, p.IsConnected())
	assert.Error(t, p.Send([]byte("d")))
	assert.NoError(t, p.Close())
	assert.Error(t, p.Connect(nil))
	assert.False(t, p.IsConnected())
}
