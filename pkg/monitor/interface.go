package monitor

// Device is a temperature display board reachable over a serial link (real or simulated).
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	Request() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Loopback implements Device.
var _ Device = (*Loopback)(nil)
