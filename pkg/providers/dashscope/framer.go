package dashscope

import "log/slog"

// PushAudio feeds one block of mono float32 samples into the session. The
// capture stream calls this for every block; consumers without a capture
// source call it directly.
//
// Blocks are forwarded only while the session is streaming on a negotiated
// connection. Anything arriving earlier, during a reconnect, or faster than
// the transport can drain is dropped and counted, never queued, so stale
// audio cannot burst onto a fresh connection.
func (s *Session) PushAudio(samples []float32) {
	if len(samples) == 0 {
		return
	}

	s.mu.Lock()
	conn := s.conn
	ready := s.state == StateStreaming && s.negotiated && conn != nil
	s.mu.Unlock()

	if !ready {
		s.dropFrame(0, "not streaming")
		return
	}

	seq := s.seq.Add(1)
	frame, err := buildAudioAppend(samples)
	if err != nil {
		s.dropFrame(seq, err.Error())
		return
	}
	if !conn.TrySend(frame) {
		s.dropFrame(seq, "send queue full")
		return
	}
	s.opts.Metrics.FrameForwarded()
}

func (s *Session) dropFrame(seq uint64, why string) {
	s.dropped.Add(1)
	s.opts.Metrics.FrameDropped()
	s.log.Debug("audio frame dropped", slog.Uint64("seq", seq), slog.String("why", why))
}
