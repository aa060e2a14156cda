package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus instruments for the recognition session.
// A nil *Metrics is valid and turns every record call into a no-op, so the
// session core can run without a metrics endpoint.
type Metrics struct {
	FramesForwarded prometheus.Counter
	FramesDropped   prometheus.Counter

	Reconnects          prometheus.Counter
	ReconnectsExhausted prometheus.Counter

	Transcripts  *prometheus.CounterVec
	ServerErrors prometheus.Counter

	SessionRunning prometheus.Gauge
}

// New creates and registers all session metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		FramesForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kikitan_audio_frames_forwarded_total",
			Help: "Total number of audio frames forwarded to the recognition service",
		}),
		FramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kikitan_audio_frames_dropped_total",
			Help: "Total number of audio frames dropped before reaching the transport",
		}),
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kikitan_reconnects_total",
			Help: "Total number of reconnect attempts scheduled",
		}),
		ReconnectsExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kikitan_reconnects_exhausted_total",
			Help: "Total number of sessions terminated after exhausting reconnect attempts",
		}),
		Transcripts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kikitan_transcripts_total",
			Help: "Total number of transcript results delivered",
		}, []string{"kind"}),
		ServerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kikitan_server_errors_total",
			Help: "Total number of error events reported by the recognition service",
		}),
		SessionRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kikitan_session_running",
			Help: "Whether the recognition session is currently running",
		}),
	}
}

func (m *Metrics) FrameForwarded() {
	if m == nil {
		return
	}
	m.FramesForwarded.Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) ReconnectGaveUp() {
	if m == nil {
		return
	}
	m.ReconnectsExhausted.Inc()
}

func (m *Metrics) Transcript(final bool) {
	if m == nil {
		return
	}
	kind := "delta"
	if final {
		kind = "final"
	}
	m.Transcripts.WithLabelValues(kind).Inc()
}

func (m *Metrics) ServerError() {
	if m == nil {
		return
	}
	m.ServerErrors.Inc()
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.SessionRunning.Set(1)
	} else {
		m.SessionRunning.Set(0)
	}
}
