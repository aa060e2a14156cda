package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeWait               = 10 * time.Second
	sendQueueSize           = 128
)

// WSDialer dials WebSocket endpoints and wraps them as Conn handles.
type WSDialer struct {
	HandshakeTimeout time.Duration
}

func (d *WSDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &wsConn{
		conn:   conn,
		sendCh: make(chan []byte, sendQueueSize),
	}
	go c.writeLoop()
	return c, nil
}

// wsConn serializes all data writes through a single goroutine fed by a
// bounded queue, so producers never race on the underlying connection.
type wsConn struct {
	conn   *websocket.Conn
	sendMu sync.Mutex
	sendCh chan []byte
	closed atomic.Bool
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Send(data []byte) error {
	return c.enqueue(data)
}

func (c *wsConn) TrySend(data []byte) bool {
	return c.enqueue(data) == nil
}

func (c *wsConn) enqueue(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.sendCh <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *wsConn) writeLoop() {
	var failed bool
	for msg := range c.sendCh {
		if failed {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Closing unblocks the reader, which owns failure handling.
			failed = true
			_ = c.conn.Close()
		}
	}
}

func (c *wsConn) Close(code int, reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	payload := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, payload, deadline)

	c.sendMu.Lock()
	close(c.sendCh)
	c.sendMu.Unlock()

	return c.conn.Close()
}

// IsNormalClose reports whether err is a clean peer close rather than a
// transport failure. Used only to pick log levels.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
