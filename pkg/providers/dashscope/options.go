package dashscope

import (
	"log/slog"
	"time"

	"github.com/febilly/kikitan-translator/pkg/capture"
	"github.com/febilly/kikitan-translator/pkg/metrics"
	"github.com/febilly/kikitan-translator/pkg/recognizer"
	"github.com/febilly/kikitan-translator/pkg/transport"
)

const (
	// DefaultBaseURL is the DashScope OpenAI-compatible realtime endpoint.
	DefaultBaseURL = "wss://dashscope.aliyuncs.com/api-ws/v1/realtime"

	// DefaultModel is the streaming ASR model used when none is configured.
	DefaultModel = "qwen3-asr-flash-realtime"

	defaultSampleRate = 16000
	defaultBlockSize  = 4096

	defaultVADThreshold = 0.2
	defaultVADSilenceMS = 800

	defaultNegotiateDelay = 100 * time.Millisecond
	defaultRestartDelay   = 500 * time.Millisecond
	defaultDialTimeout    = 10 * time.Second
)

// ReconnectPolicy controls how transport loss is retried. The wait before
// attempt n is Base*n, and after MaxAttempts consecutive failures the
// session gives up.
type ReconnectPolicy struct {
	Base        time.Duration
	MaxAttempts int
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.Base <= 0 {
		p.Base = 2 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	return p
}

// Options configures a Session.
type Options struct {
	// APIKey authenticates against the endpoint. Start fails fast when it
	// is blank.
	APIKey string

	Model    string
	Language string
	BaseURL  string

	SampleRate int
	BlockSize  int

	// VAD toggles server-side turn detection; nil means enabled.
	VAD          *bool
	VADThreshold float64
	VADSilenceMS int

	NegotiateDelay time.Duration
	RestartDelay   time.Duration
	DialTimeout    time.Duration
	Reconnect      ReconnectPolicy

	// Capture, when set, is opened once the first negotiation completes and
	// feeds blocks into the session until Stop. When nil the caller pushes
	// blocks through PushAudio.
	Capture capture.Source

	// Dialer defaults to the production WebSocket dialer.
	Dialer transport.Dialer

	// Metrics may be nil.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.SampleRate <= 0 {
		o.SampleRate = defaultSampleRate
	}
	if o.BlockSize <= 0 {
		o.BlockSize = defaultBlockSize
	}
	if o.VAD == nil {
		enabled := true
		o.VAD = &enabled
	}
	if o.VADThreshold <= 0 {
		o.VADThreshold = defaultVADThreshold
	}
	if o.VADSilenceMS <= 0 {
		o.VADSilenceMS = defaultVADSilenceMS
	}
	if o.NegotiateDelay <= 0 {
		o.NegotiateDelay = defaultNegotiateDelay
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = defaultRestartDelay
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	o.Reconnect = o.Reconnect.withDefaults()
	if o.Dialer == nil {
		o.Dialer = &transport.WSDialer{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Settings is the mapstructure shape of the provider's configuration block.
type Settings struct {
	APIKey       string   `mapstructure:"api_key"`
	Model        string   `mapstructure:"model"`
	Language     string   `mapstructure:"language"`
	BaseURL      string   `mapstructure:"base_url"`
	SampleRate   int      `mapstructure:"sample_rate"`
	BlockSize    int      `mapstructure:"block_size"`
	VAD          *bool    `mapstructure:"vad"`
	VADThreshold *float64 `mapstructure:"vad_threshold"`
	VADSilenceMS *int     `mapstructure:"vad_silence_ms"`

	ReconnectBaseMS      *int `mapstructure:"reconnect_base_ms"`
	ReconnectMaxAttempts *int `mapstructure:"reconnect_max_attempts"`
}

// OptionsFromSettings decodes a free-form provider settings map into
// Options. Unset keys keep their defaults.
func OptionsFromSettings(settings map[string]any) (Options, error) {
	var s Settings
	if err := recognizer.DecodeSettings(settings, &s); err != nil {
		return Options{}, err
	}
	opts := Options{
		APIKey:       s.APIKey,
		Model:        s.Model,
		Language:     s.Language,
		BaseURL:      s.BaseURL,
		SampleRate:   s.SampleRate,
		BlockSize:    s.BlockSize,
		VAD:          s.VAD,
		VADThreshold: recognizer.FloatValue(s.VADThreshold, 0),
		VADSilenceMS: recognizer.IntValue(s.VADSilenceMS, 0),
		Reconnect: ReconnectPolicy{
			Base:        time.Duration(recognizer.IntValue(s.ReconnectBaseMS, 0)) * time.Millisecond,
			MaxAttempts: recognizer.IntValue(s.ReconnectMaxAttempts, 0),
		},
	}
	return opts, nil
}
