package recognizer

import (
	"context"
	"testing"
)

type nopRecognizer struct {
	lang string
}

func (n *nopRecognizer) Start(context.Context) error { return nil }
func (n *nopRecognizer) Stop() error                 { return nil }
func (n *nopRecognizer) SetLanguage(tag string)      { n.lang = tag }
func (n *nopRecognizer) Status() bool                { return false }
func (n *nopRecognizer) OnResult(Callback)           {}

func TestRegistryBuild(t *testing.T) {
	reg := NewRegistry()
	reg.Register("DashScope", func(settings map[string]any) (Recognizer, error) {
		r := &nopRecognizer{}
		if lang, ok := settings["language"].(string); ok {
			r.SetLanguage(lang)
		}
		return r, nil
	})

	r, err := reg.Build("  dashscope ", map[string]any{"language": "ja"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := r.(*nopRecognizer).lang; got != "ja" {
		t.Fatalf("expected settings to reach factory, got language %q", got)
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Build("missing", nil); err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}

func TestDecodeSettings(t *testing.T) {
	var out struct {
		APIKey     string   `mapstructure:"api_key"`
		SampleRate int      `mapstructure:"sample_rate"`
		VAD        *bool    `mapstructure:"vad"`
		Threshold  *float64 `mapstructure:"threshold"`
	}
	in := map[string]any{
		"API-Key":    "sk-test",
		"samplerate": "16000",
		"vad":        false,
		"threshold":  0.3,
	}
	if err := DecodeSettings(in, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.APIKey != "sk-test" {
		t.Fatalf("api key not decoded: %q", out.APIKey)
	}
	if out.SampleRate != 16000 {
		t.Fatalf("weak typing failed: %d", out.SampleRate)
	}
	if BoolValue(out.VAD, true) {
		t.Fatalf("expected explicit false to win over fallback")
	}
	if FloatValue(out.Threshold, 0.2) != 0.3 {
		t.Fatalf("expected explicit threshold")
	}
}

func TestDecodeSettingsEmpty(t *testing.T) {
	var out struct {
		Model string `mapstructure:"model"`
	}
	out.Model = "keep"
	if err := DecodeSettings(nil, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Model != "keep" {
		t.Fatalf("empty input must not touch the target")
	}
}
