package dashscope

import (
	"testing"
	"time"
)

func TestOptionsFromSettings(t *testing.T) {
	opts, err := OptionsFromSettings(map[string]any{
		"api_key":                "sk-test",
		"model":                  "custom-model",
		"language":               "en-US",
		"sample_rate":            "8000", // weakly typed on purpose
		"vad":                    false,
		"vadThreshold":           0.5,
		"reconnect_base_ms":      100,
		"reconnect_max_attempts": 2,
	})
	if err != nil {
		t.Fatalf("OptionsFromSettings: %v", err)
	}
	if opts.APIKey != "sk-test" || opts.Model != "custom-model" || opts.Language != "en-US" {
		t.Errorf("identity fields = %q/%q/%q", opts.APIKey, opts.Model, opts.Language)
	}
	if opts.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", opts.SampleRate)
	}
	if opts.VAD == nil || *opts.VAD {
		t.Error("vad should decode to explicitly disabled")
	}
	if opts.VADThreshold != 0.5 {
		t.Errorf("vad threshold = %v, want 0.5", opts.VADThreshold)
	}
	if opts.Reconnect.Base != 100*time.Millisecond || opts.Reconnect.MaxAttempts != 2 {
		t.Errorf("reconnect = %+v", opts.Reconnect)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	if opts.Model != DefaultModel {
		t.Errorf("model = %q, want %q", opts.Model, DefaultModel)
	}
	if opts.BaseURL != DefaultBaseURL {
		t.Errorf("base url = %q, want %q", opts.BaseURL, DefaultBaseURL)
	}
	if opts.SampleRate != 16000 || opts.BlockSize != 4096 {
		t.Errorf("audio = %d/%d, want 16000/4096", opts.SampleRate, opts.BlockSize)
	}
	if opts.VAD == nil || !*opts.VAD {
		t.Error("vad should default to enabled")
	}
	if opts.VADThreshold != 0.2 || opts.VADSilenceMS != 800 {
		t.Errorf("vad tuning = %v/%d, want 0.2/800", opts.VADThreshold, opts.VADSilenceMS)
	}
	if opts.Reconnect.Base != 2*time.Second || opts.Reconnect.MaxAttempts != 5 {
		t.Errorf("reconnect = %+v, want 2s base and 5 attempts", opts.Reconnect)
	}
	if opts.NegotiateDelay != 100*time.Millisecond {
		t.Errorf("negotiate delay = %v, want 100ms", opts.NegotiateDelay)
	}
	if opts.RestartDelay != 500*time.Millisecond {
		t.Errorf("restart delay = %v, want 500ms", opts.RestartDelay)
	}
	if opts.Dialer == nil {
		t.Error("dialer not defaulted")
	}
	if opts.Logger == nil {
		t.Error("logger not defaulted")
	}
}
