// Package mock provides a scripted recognizer for dry runs and tests. It
// emits a configured sequence of transcripts on a timer, so the full result
// pipeline can be exercised without credentials, network, or a microphone.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/febilly/kikitan-translator/pkg/recognizer"
)

type Config struct {
	// Script holds the utterances to emit, in order. Empty means a single
	// canned phrase.
	Script []string

	// Interval is the gap between utterances.
	Interval time.Duration

	// Interim controls whether each utterance is preceded by a non-final
	// result carrying the same text.
	Interim bool

	// Loop restarts the script from the top instead of going quiet.
	Loop bool
}

type Recognizer struct {
	cfg Config

	mu      sync.Mutex
	running bool
	lang    string
	cancel  context.CancelFunc
	onRes   recognizer.Callback
}

func New(cfg Config) *Recognizer {
	if len(cfg.Script) == 0 {
		cfg.Script = []string{"mock transcript"}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Recognizer{cfg: cfg}
}

// FromSettings builds a Recognizer from a provider settings map. Recognized
// keys: script ([]string), interval_ms (int), interim (bool), loop (bool).
func FromSettings(settings map[string]any) (*Recognizer, error) {
	var s struct {
		Script     []string `mapstructure:"script"`
		IntervalMS int      `mapstructure:"interval_ms"`
		Interim    *bool    `mapstructure:"interim"`
		Loop       *bool    `mapstructure:"loop"`
	}
	if err := recognizer.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return New(Config{
		Script:   s.Script,
		Interval: time.Duration(s.IntervalMS) * time.Millisecond,
		Interim:  recognizer.BoolValue(s.Interim, true),
		Loop:     recognizer.BoolValue(s.Loop, true),
	}), nil
}

var _ recognizer.Recognizer = (*Recognizer)(nil)

func (r *Recognizer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(runCtx)
	return nil
}

func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}

func (r *Recognizer) SetLanguage(tag string) {
	r.mu.Lock()
	r.lang = tag
	r.mu.Unlock()
}

func (r *Recognizer) Status() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Recognizer) OnResult(fn recognizer.Callback) {
	r.mu.Lock()
	r.onRes = fn
	r.mu.Unlock()
}

func (r *Recognizer) run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if i >= len(r.cfg.Script) {
			if !r.cfg.Loop {
				return
			}
			i = 0
		}
		text := r.cfg.Script[i]
		i++

		if r.cfg.Interim {
			r.emit(recognizer.Result{Text: text, Final: false})
		}
		r.emit(recognizer.Result{Text: text, Final: true})
	}
}

func (r *Recognizer) emit(res recognizer.Result) {
	r.mu.Lock()
	cb := r.onRes
	r.mu.Unlock()
	if cb != nil {
		cb(res)
	}
}
