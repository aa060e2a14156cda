package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Recognizer.Provider != "dashscope" {
		t.Errorf("provider = %q, want dashscope", cfg.Recognizer.Provider)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.BlockSize != 4096 {
		t.Errorf("audio = %d/%d, want 16000/4096", cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	}
	if !cfg.Chatbox.Enabled || cfg.Chatbox.Port != 9000 {
		t.Errorf("chatbox = %+v", cfg.Chatbox)
	}
	if cfg.Chatbox.ListenAddr != "127.0.0.1:9001" || !cfg.Chatbox.FollowMute {
		t.Errorf("chatbox listener = %+v", cfg.Chatbox)
	}
	if !cfg.Ops.Enabled || cfg.Ops.Addr != "127.0.0.1:8090" {
		t.Errorf("ops = %+v", cfg.Ops)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
log_format: json
privacy:
  redact_pii: true
recognizer:
  provider: dashscope
  settings:
    api_key: sk-yaml
    language: ja
    vad: false
audio:
  sample_rate: 8000
chatbox:
  enabled: false
ops:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Privacy.RedactPII {
		t.Error("redact_pii not set")
	}
	if cfg.Recognizer.Settings["api_key"] != "sk-yaml" {
		t.Errorf("api_key = %v", cfg.Recognizer.Settings["api_key"])
	}
	if cfg.Recognizer.Settings["language"] != "ja" {
		t.Errorf("language = %v", cfg.Recognizer.Settings["language"])
	}
	if cfg.Audio.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BlockSize != 4096 {
		t.Errorf("block size = %d, want default 4096", cfg.Audio.BlockSize)
	}
	if cfg.Chatbox.Enabled || cfg.Ops.Enabled {
		t.Error("chatbox/ops should be disabled")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("KIKITAN_TEST_KEY", "sk-from-env")
	path := writeConfig(t, `
recognizer:
  settings:
    api_key: ${KIKITAN_TEST_KEY}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Recognizer.Settings["api_key"]; got != "sk-from-env" {
		t.Errorf("api_key = %v, want expanded env value", got)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("load succeeded on a missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"blank provider", "recognizer:\n  provider: '  '\n"},
		{"zero sample rate", "audio:\n  sample_rate: -1\n"},
		{"ops without addr", "ops:\n  enabled: true\n  addr: ''\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("load succeeded, want validation error")
			}
		})
	}
}
