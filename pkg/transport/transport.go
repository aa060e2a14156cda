package transport

import (
	"context"
	"errors"
	"net/http"
)

// RFC 6455 close codes used by the session core.
const (
	CloseNormal    = 1000
	CloseGoingAway = 1001
)

var (
	// ErrClosed is returned when writing to a handle that has been closed.
	ErrClosed = errors.New("connection handle is closed")

	// ErrQueueFull is returned when the outbound queue cannot accept a frame.
	ErrQueueFull = errors.New("outbound queue is full")
)

// Conn is one open full-duplex message channel to the recognition endpoint.
// Implementations own their network lifecycle; the session core only reads,
// writes and closes.
type Conn interface {
	// ReadMessage blocks until the next inbound frame or a transport error.
	ReadMessage() ([]byte, error)

	// Send enqueues an outbound frame. It fails when the handle is closed
	// or the outbound queue is full; it never blocks on the network.
	Send(data []byte) error

	// TrySend enqueues an outbound frame, reporting false instead of
	// returning an error. Frames that cannot be accepted are dropped.
	TrySend(data []byte) bool

	// Close tears the channel down with a close code. Idempotent.
	Close(code int, reason string) error
}

// Dialer opens connection handles.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}
