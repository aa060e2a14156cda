// Package dashscope implements a resilient streaming speech recognition
// session against the DashScope OpenAI-compatible realtime API. A Session
// owns one WebSocket at a time, negotiates transcription parameters on it,
// streams PCM16 audio frames, and surfaces incremental and final transcript
// results. Lost connections are re-dialed with linearly growing delays and
// re-negotiated transparently; the consumer only notices through state
// change notifications.
package dashscope

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/febilly/kikitan-translator/pkg/capture"
	"github.com/febilly/kikitan-translator/pkg/errorsx"
	"github.com/febilly/kikitan-translator/pkg/logging"
	"github.com/febilly/kikitan-translator/pkg/recognizer"
	"github.com/febilly/kikitan-translator/pkg/transport"
)

// Session is a restartable streaming recognition session. All methods are
// safe for concurrent use. The zero value is not usable; construct with New.
type Session struct {
	opts Options
	log  *slog.Logger

	mu    sync.Mutex
	state State
	lang  string

	// epoch increments on every Start, Stop and SetLanguage. Timer and
	// goroutine callbacks capture it and bail out when it moved on, so work
	// scheduled for a previous generation can never touch the current one.
	epoch uint64

	// connID increments whenever a new connection is adopted. Events from a
	// read loop whose id no longer matches are discarded.
	connID uint64

	conn       transport.Conn
	negotiated bool
	dialing    bool
	attempts   int

	capStream  capture.Stream
	capOpening bool

	ctx    context.Context
	cancel context.CancelFunc

	reconnectTimer *time.Timer
	restartTimer   *time.Timer

	// pending holds state notifications queued under mu and delivered after
	// it is released, so consumer callbacks never run under the lock.
	pending []Snapshot

	onResult recognizer.Callback
	onState  func(Snapshot)
	onError  func(error)

	asm *assembler

	seq     atomic.Uint64
	dropped atomic.Uint64
}

var _ recognizer.Recognizer = (*Session)(nil)

// New builds a Session from opts. The session stays idle until Start.
func New(opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		opts:  opts,
		log:   logging.NewComponentLogger(opts.Logger, "dashscope_session"),
		state: StateIdle,
		lang:  opts.Language,
	}
	s.asm = newAssembler(s.log, s.deliverResult)
	return s
}

// Start brings the session up: dial, then negotiate, then stream. It is a
// no-op when the session is already running. A blank API key or a failed
// dial tears the session back down to idle and returns the error.
func (s *Session) Start(ctx context.Context) error {
	defer s.flushStateNotifications()
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil
	}
	if strings.TrimSpace(s.opts.APIKey) == "" {
		s.mu.Unlock()
		err := errorsx.New(errorsx.ReasonAuth, "api key is blank")
		s.reportError(err)
		return err
	}
	s.epoch++
	epoch := s.epoch
	s.attempts = 0
	s.dropped.Store(0)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.dialing = true
	s.transitionLocked(StateStarting, "start")
	s.mu.Unlock()

	conn, err := s.dial(ctx)

	s.mu.Lock()
	s.dialing = false
	if s.epoch != epoch || s.state != StateStarting {
		// Stopped while dialing; whoever stopped us already cleaned up.
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(transport.CloseNormal, "superseded")
		}
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.stopInternal("connect failed", err)
		return err
	}
	s.adoptConnLocked(conn, "connected")
	s.mu.Unlock()
	return nil
}

// Stop tears the session down and releases the connection and the capture
// stream. Stopping an idle session is a no-op. Stop never fails; the error
// return exists to satisfy the Recognizer interface.
func (s *Session) Stop() error {
	s.stopInternal("client stop", nil)
	return nil
}

// SetLanguage records the new language tag. A running session is stopped
// and restarted shortly afterwards so the change takes effect through a
// fresh negotiation; an idle session just keeps the tag for the next Start.
func (s *Session) SetLanguage(tag string) {
	defer s.flushStateNotifications()

	s.mu.Lock()
	s.lang = tag
	if s.state == StateIdle || s.state == StateStopping {
		s.mu.Unlock()
		s.log.Info("language updated", slog.String("language", tag))
		return
	}
	s.epoch++
	epoch := s.epoch
	conn, stream := s.detachLocked("language change")
	s.restartTimer = time.AfterFunc(s.opts.RestartDelay, func() { s.restart(epoch) })
	s.mu.Unlock()

	s.log.Info("language updated, restarting session", slog.String("language", tag))
	closeResources(conn, stream)

	s.mu.Lock()
	// Only this teardown can move the session out of Stopping, so the
	// transition runs even when a concurrent stop bumped the epoch to
	// cancel the scheduled restart.
	if s.state == StateStopping {
		s.transitionLocked(StateIdle, "language change")
	}
	s.mu.Unlock()
}

// restart is the delayed half of SetLanguage.
func (s *Session) restart(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if s.state == StateStopping {
		// Teardown still draining; check back shortly.
		s.restartTimer = time.AfterFunc(20*time.Millisecond, func() { s.restart(epoch) })
		s.mu.Unlock()
		return
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	_ = s.Start(context.Background())
}

// Status reports whether the session is running in any form, including
// mid-reconnect.
func (s *Session) Status() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateIdle
}

// Snapshot returns the current session state for status surfaces.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OnResult registers the transcript callback. Results are delivered from
// the connection's read goroutine, so the callback must not block for long.
func (s *Session) OnResult(fn recognizer.Callback) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// OnState registers a state change listener.
func (s *Session) OnState(fn func(Snapshot)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// OnError registers an error listener. It receives authentication, send,
// server and reconnect-exhausted errors; transient read errors that lead to
// a reconnect are not reported here.
func (s *Session) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// stopInternal tears the session down from any state, transitions it to
// idle, and reports err when non-nil. Shared by Stop, terminal reconnect
// failures and the Start error path.
func (s *Session) stopInternal(reason string, err error) {
	defer s.flushStateNotifications()

	s.mu.Lock()
	if s.state == StateIdle || s.state == StateStopping {
		// Already down or on the way down, but a restart scheduled by a
		// language change may still be pending; a stop must cancel it.
		s.epoch++
		if s.restartTimer != nil {
			s.restartTimer.Stop()
			s.restartTimer = nil
		}
		if s.reconnectTimer != nil {
			s.reconnectTimer.Stop()
			s.reconnectTimer = nil
		}
		s.mu.Unlock()
		if err != nil {
			s.reportError(err)
		}
		return
	}
	s.epoch++
	conn, stream := s.detachLocked(reason)
	s.mu.Unlock()

	closeResources(conn, stream)

	s.mu.Lock()
	s.transitionLocked(StateIdle, reason)
	s.mu.Unlock()

	if err != nil {
		s.reportError(err)
	}
}

// detachLocked moves the session into Stopping and strips its resources.
// The caller closes the returned handles after releasing the lock.
func (s *Session) detachLocked(reason string) (transport.Conn, capture.Stream) {
	s.transitionLocked(StateStopping, reason)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.ctx = nil
	}
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	conn := s.conn
	stream := s.capStream
	s.conn = nil
	s.capStream = nil
	s.negotiated = false
	s.asm.Reset()
	return conn, stream
}

func closeResources(conn transport.Conn, stream capture.Stream) {
	if conn != nil {
		_ = conn.Close(transport.CloseNormal, "session stopped")
	}
	if stream != nil {
		_ = stream.Close()
	}
}

// transitionLocked applies a state change, queueing the notification for
// delivery once the lock is released. Invalid edges are logged and refused.
func (s *Session) transitionLocked(to State, reason string) {
	if !transitionValid(s.state, to) {
		s.log.Error("invalid state transition",
			slog.String("from", string(s.state)),
			slog.String("to", string(to)),
			slog.String("reason", reason))
		return
	}
	s.log.Debug("state transition",
		slog.String("from", string(s.state)),
		slog.String("to", string(to)),
		slog.String("reason", reason))
	s.state = to
	s.opts.Metrics.SetRunning(to != StateIdle)
	s.pending = append(s.pending, s.snapshotLocked())
}

// flushStateNotifications drains queued state changes and delivers them in
// order, outside the lock. Every public entry point that can transition
// defers a call to this.
func (s *Session) flushStateNotifications() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		snap := s.pending[0]
		s.pending = s.pending[1:]
		cb := s.onState
		s.mu.Unlock()
		if cb != nil {
			cb(snap)
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:             s.state,
		Language:          s.lang,
		Negotiated:        s.negotiated,
		ReconnectAttempts: s.attempts,
		DroppedFrames:     s.dropped.Load(),
	}
}

func (s *Session) deliverResult(res recognizer.Result) {
	s.opts.Metrics.Transcript(res.Final)
	s.mu.Lock()
	cb := s.onResult
	s.mu.Unlock()
	if cb != nil {
		cb(res)
	}
}

func (s *Session) reportError(err error) {
	if err == nil {
		return
	}
	s.log.Error("session error",
		slog.String("reason", string(errorsx.Reason(err))),
		slog.String("error", err.Error()))
	s.mu.Lock()
	cb := s.onError
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}
