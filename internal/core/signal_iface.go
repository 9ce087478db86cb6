package core

import "errors"

// Frame is one outbound payload (a websocket text message).
type Frame []byte

// ConnID identifies one live transport session. Server-assigned, unique
// for the connection's lifetime.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend never blocks. It returns ErrBackpressure when the outbound
	// buffer is full and ErrConnClosed after Close.
	TrySend(Frame) error
	Close()
}
