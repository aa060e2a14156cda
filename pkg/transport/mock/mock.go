package mock

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/febilly/kikitan-translator/pkg/transport"
)

// Dialer scripts dial outcomes for session tests. It implements
// transport.Dialer without any network dependency.
type Dialer struct {
	// FailFirst makes the first N dials fail.
	FailFirst int
	// FailAll makes every dial fail.
	FailAll bool

	mu    sync.Mutex
	dials int
	conns []*Conn
}

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(_ context.Context, url string, header http.Header) (transport.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.FailAll || d.dials <= d.FailFirst {
		return nil, errors.New("mock dial refused")
	}
	c := newConn(url, header)
	d.conns = append(d.conns, c)
	return c, nil
}

// SetFailAll toggles failure of all subsequent dials. Safe to call while
// dials are in flight.
func (d *Dialer) SetFailAll(fail bool) {
	d.mu.Lock()
	d.FailAll = fail
	d.mu.Unlock()
}

// Dials returns how many times Dial was invoked.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Last returns the most recently dialed conn, or nil.
func (d *Dialer) Last() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Conns returns every conn handed out so far.
func (d *Dialer) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Conn, len(d.conns))
	copy(out, d.conns)
	return out
}

// Conn is an in-memory connection handle. Tests push inbound frames with
// Push, inspect outbound frames with Sent, and simulate transport loss with
// Fail.
type Conn struct {
	URL    string
	Header http.Header

	mu          sync.Mutex
	sent        [][]byte
	readErr     error
	closeCode   int
	closeReason string

	inbound chan []byte
	done    chan struct{}
	closed  atomic.Bool
}

func newConn(url string, header http.Header) *Conn {
	return &Conn{
		URL:     url,
		Header:  header.Clone(),
		inbound: make(chan []byte, 256),
		done:    make(chan struct{}),
	}
}

func (c *Conn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.done:
		c.mu.Lock()
		err := c.readErr
		c.mu.Unlock()
		if err == nil {
			err = errors.New("mock connection closed")
		}
		return nil, err
	}
}

func (c *Conn) Send(data []byte) error {
	if c.closed.Load() {
		return transport.ErrClosed
	}
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	return nil
}

func (c *Conn) TrySend(data []byte) bool {
	return c.Send(data) == nil
}

func (c *Conn) Close(code int, reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	c.closeCode = code
	c.closeReason = reason
	c.mu.Unlock()
	close(c.done)
	return nil
}

// Push injects an inbound frame, as if the server had sent it.
func (c *Conn) Push(data []byte) {
	if c.closed.Load() {
		return
	}
	select {
	case c.inbound <- data:
	default:
	}
}

// Fail simulates an unexpected transport failure: the pending (or next)
// ReadMessage returns err.
func (c *Conn) Fail(err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	close(c.done)
}

// Sent returns a snapshot of every outbound frame.
func (c *Conn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Closed reports whether the handle has been closed or failed.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// CloseCode returns the close code and reason recorded by Close.
func (c *Conn) CloseCode() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeReason
}
