package dashscope

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"github.com/febilly/kikitan-translator/pkg/errorsx"
	"github.com/febilly/kikitan-translator/pkg/transport"
)

// buildURL appends the model selector to the endpoint and normalizes http
// schemes to their WebSocket equivalents.
func buildURL(base, model string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// dial opens a connection to the realtime endpoint. It never touches
// session state; callers decide what to do with the result under the lock.
func (s *Session) dial(ctx context.Context) (transport.Conn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dctx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	defer cancel()

	endpoint, err := buildURL(s.opts.BaseURL, s.opts.Model)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConnect)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.opts.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	s.log.Debug("dialing", slog.String("url", endpoint), slog.String("model", s.opts.Model))
	conn, err := s.opts.Dialer.Dial(dctx, endpoint, header)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConnect)
	}
	return conn, nil
}

// adoptConnLocked installs a freshly dialed connection, starts its read
// loop, and schedules the delayed negotiation. Some endpoints reject
// configuration sent in the same instant the socket opens, hence the delay.
func (s *Session) adoptConnLocked(conn transport.Conn, reason string) {
	s.connID++
	s.conn = conn
	s.negotiated = false
	s.transitionLocked(StateNegotiating, reason)

	epoch := s.epoch
	connID := s.connID
	go s.readLoop(conn, connID, epoch)
	time.AfterFunc(s.opts.NegotiateDelay, func() { s.negotiate(epoch, connID) })
}

// readLoop pumps inbound messages until the connection dies. One loop runs
// per adopted connection; its connID keeps late events from a replaced
// connection out of the session.
func (s *Session) readLoop(conn transport.Conn, connID, epoch uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.handleConnLost(connID, epoch, err)
			return
		}
		s.handleServerMessage(connID, data)
	}
}

func (s *Session) handleServerMessage(connID uint64, data []byte) {
	s.mu.Lock()
	stale := s.connID != connID
	s.mu.Unlock()
	if stale {
		return
	}

	evt, err := decodeServerEvent(data)
	if err != nil {
		// Malformed payloads are dropped at the boundary; the session
		// itself stays healthy.
		s.log.Warn("undecodable server event", slog.String("error", err.Error()))
		return
	}

	switch evt.Type {
	case typeTranscriptDelta:
		s.asm.AddDelta(evt.Delta)
	case typeTranscriptCompleted:
		s.asm.Complete(evt.Transcript)
	case typeServerError:
		payload := string(evt.Error)
		if payload == "" {
			payload = "unspecified"
		}
		s.opts.Metrics.ServerError()
		s.reportError(errorsx.New(errorsx.ReasonServer, "server error: %s", payload))
	default:
		s.log.Debug("ignoring server event", slog.String("type", evt.Type))
	}
}

// handleConnLost runs when a read loop exits. For the current connection of
// a running session it kicks off the reconnect cycle; anything else is a
// leftover from teardown and is ignored.
func (s *Session) handleConnLost(connID, epoch uint64, cause error) {
	defer s.flushStateNotifications()

	s.mu.Lock()
	if s.epoch != epoch || s.connID != connID {
		s.mu.Unlock()
		return
	}
	if s.state == StateStopping || s.state == StateIdle {
		s.mu.Unlock()
		return
	}

	if transport.IsNormalClose(cause) {
		s.log.Info("connection closed by server")
	} else {
		s.log.Warn("connection lost", slog.String("error", cause.Error()))
	}

	old := s.conn
	s.conn = nil
	s.negotiated = false
	s.asm.Reset()
	s.transitionLocked(StateReconnecting, "connection lost")
	scheduled := s.scheduleReconnectLocked()
	s.mu.Unlock()

	if old != nil {
		_ = old.Close(transport.CloseGoingAway, "read failed")
	}
	if !scheduled {
		s.stopInternal("reconnect exhausted", s.exhaustErr())
	}
}

// scheduleReconnectLocked arms the next reconnect attempt. It returns false
// when the attempt budget is spent, leaving the caller to finish the
// session off.
func (s *Session) scheduleReconnectLocked() bool {
	s.attempts++
	if s.attempts > s.opts.Reconnect.MaxAttempts {
		s.log.Error("reconnect attempts exhausted",
			slog.Int("max_attempts", s.opts.Reconnect.MaxAttempts))
		s.opts.Metrics.ReconnectGaveUp()
		return false
	}

	delay := time.Duration(s.attempts) * s.opts.Reconnect.Base
	epoch := s.epoch
	s.log.Info("scheduling reconnect",
		slog.Int("attempt", s.attempts),
		slog.Duration("delay", delay))
	s.opts.Metrics.ReconnectScheduled()
	s.reconnectTimer = time.AfterFunc(delay, func() { s.reconnect(epoch) })
	return true
}

// reconnect is the timer half of the reconnect cycle: re-dial, then either
// adopt the new connection or schedule the next attempt.
func (s *Session) reconnect(epoch uint64) {
	defer s.flushStateNotifications()

	s.mu.Lock()
	if s.epoch != epoch || s.state != StateReconnecting || s.dialing || s.conn != nil {
		s.mu.Unlock()
		return
	}
	s.dialing = true
	ctx := s.ctx
	s.mu.Unlock()

	conn, err := s.dial(ctx)

	s.mu.Lock()
	s.dialing = false
	if s.epoch != epoch || s.state != StateReconnecting {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(transport.CloseNormal, "superseded")
		}
		return
	}
	if err != nil {
		s.log.Warn("reconnect failed", slog.String("error", err.Error()))
		scheduled := s.scheduleReconnectLocked()
		s.mu.Unlock()
		if !scheduled {
			s.stopInternal("reconnect exhausted", s.exhaustErr())
		}
		return
	}
	s.adoptConnLocked(conn, "reconnected")
	s.mu.Unlock()
}

func (s *Session) exhaustErr() error {
	return errorsx.New(errorsx.ReasonReconnectExhausted,
		"gave up after %d reconnect attempts", s.opts.Reconnect.MaxAttempts)
}
