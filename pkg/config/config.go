// Package config loads the daemon configuration from YAML with defaults
// for every knob, so an empty file (or none at all) yields a runnable
// setup. Strings support ${ENV} expansion, which is how secrets like the
// API key stay out of the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Privacy   PrivacyConfig `mapstructure:"privacy"`

	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Chatbox    ChatboxConfig    `mapstructure:"chatbox"`
	Ops        OpsConfig        `mapstructure:"ops"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// RecognizerConfig selects a provider and carries its free-form settings.
type RecognizerConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	BlockSize  int `mapstructure:"block_size"`
}

type ChatboxConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Address          string `mapstructure:"address"`
	Port             int    `mapstructure:"port"`
	ListenAddr       string `mapstructure:"listen_addr"`
	FollowMute       bool   `mapstructure:"follow_mute"`
	TypingIntervalMS int    `mapstructure:"typing_interval_ms"`
}

type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads the configuration at path. An empty path skips the file and
// returns pure defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("recognizer.provider", "dashscope")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.block_size", 4096)
	v.SetDefault("chatbox.enabled", true)
	v.SetDefault("chatbox.address", "127.0.0.1")
	v.SetDefault("chatbox.port", 9000)
	v.SetDefault("chatbox.listen_addr", "127.0.0.1:9001")
	v.SetDefault("chatbox.follow_mute", true)
	v.SetDefault("chatbox.typing_interval_ms", 1000)
	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.addr", "127.0.0.1:8090")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Recognizer.Provider) == "" {
		return fmt.Errorf("recognizer.provider is required")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if c.Audio.BlockSize <= 0 {
		return fmt.Errorf("audio.block_size must be positive")
	}
	if c.Ops.Enabled && strings.TrimSpace(c.Ops.Addr) == "" {
		return fmt.Errorf("ops.addr is required when ops is enabled")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	cfg.LogLevel = os.ExpandEnv(cfg.LogLevel)
	cfg.LogFormat = os.ExpandEnv(cfg.LogFormat)
	cfg.Recognizer.Provider = os.ExpandEnv(cfg.Recognizer.Provider)
	cfg.Recognizer.Settings = expandSettings(cfg.Recognizer.Settings)
	cfg.Chatbox.Address = os.ExpandEnv(cfg.Chatbox.Address)
	cfg.Chatbox.ListenAddr = os.ExpandEnv(cfg.Chatbox.ListenAddr)
	cfg.Ops.Addr = os.ExpandEnv(cfg.Ops.Addr)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	default:
		return v
	}
}
