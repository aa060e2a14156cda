package dashscope

import (
	"log/slog"

	"github.com/febilly/kikitan-translator/pkg/capture"
	"github.com/febilly/kikitan-translator/pkg/errorsx"
)

// negotiate sends the session.update describing language, audio format and
// turn detection, then opens the audio gate. It runs once per adopted
// connection; the epoch and connID guards drop stale invocations.
func (s *Session) negotiate(epoch, connID uint64) {
	defer s.flushStateNotifications()

	s.mu.Lock()
	if s.epoch != epoch || s.connID != connID || s.state != StateNegotiating || s.conn == nil {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	lang := mapLanguage(s.lang)
	payload, err := buildSessionUpdate(lang, s.opts.SampleRate, s.vadConfig())
	s.mu.Unlock()
	if err != nil {
		s.reportError(errorsx.Wrap(err, errorsx.ReasonSend))
		return
	}

	if err := conn.Send(payload); err != nil {
		// The connection is on its way out; the read loop notices and
		// drives the reconnect.
		s.log.Warn("negotiation send failed", slog.String("error", err.Error()))
		s.reportError(errorsx.Wrap(err, errorsx.ReasonSend))
		return
	}

	s.mu.Lock()
	if s.epoch != epoch || s.connID != connID || s.state != StateNegotiating {
		s.mu.Unlock()
		return
	}
	s.negotiated = true
	s.attempts = 0
	s.transitionLocked(StateStreaming, "negotiated")
	needCapture := s.opts.Capture != nil && s.capStream == nil && !s.capOpening
	if needCapture {
		s.capOpening = true
	}
	s.mu.Unlock()

	s.log.Info("session negotiated",
		slog.String("language", lang),
		slog.Int("sample_rate", s.opts.SampleRate),
		slog.Bool("vad", *s.opts.VAD))

	if needCapture {
		s.openCapture(epoch)
	}
}

func (s *Session) vadConfig() *turnDetection {
	if !*s.opts.VAD {
		return nil
	}
	return &turnDetection{
		Type:              "server_vad",
		Threshold:         s.opts.VADThreshold,
		SilenceDurationMS: s.opts.VADSilenceMS,
	}
}

// openCapture starts the microphone once the first negotiation completes.
// The stream stays open across reconnects; blocks pushed while the session
// is not streaming are simply dropped by the framer.
func (s *Session) openCapture(epoch uint64) {
	cfg := capture.Config{
		SampleRate: s.opts.SampleRate,
		BlockSize:  s.opts.BlockSize,
	}
	stream, err := s.opts.Capture.Open(cfg, s.PushAudio)

	s.mu.Lock()
	s.capOpening = false
	if err != nil {
		s.mu.Unlock()
		s.stopInternal("capture failed", errorsx.Wrap(err, errorsx.ReasonCapture))
		return
	}
	if s.epoch != epoch || s.state == StateStopping || s.state == StateIdle {
		s.mu.Unlock()
		_ = stream.Close()
		return
	}
	s.capStream = stream
	s.mu.Unlock()

	s.log.Info("audio capture started",
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("block_size", cfg.BlockSize))
}
