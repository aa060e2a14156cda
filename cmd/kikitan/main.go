package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"
	"log/slog"

	"github.com/febilly/kikitan-translator/pkg/capture/portaudio"
	"github.com/febilly/kikitan-translator/pkg/chatbox"
	"github.com/febilly/kikitan-translator/pkg/config"
	"github.com/febilly/kikitan-translator/pkg/logging"
	"github.com/febilly/kikitan-translator/pkg/metrics"
	"github.com/febilly/kikitan-translator/pkg/providers/dashscope"
	mockrec "github.com/febilly/kikitan-translator/pkg/providers/mock"
	"github.com/febilly/kikitan-translator/pkg/recognizer"
	"github.com/febilly/kikitan-translator/pkg/redact"
	"github.com/febilly/kikitan-translator/pkg/runner"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	language := flag.String("language", "", "override the recognition language")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)
	runner.PrintBanner()

	if err := run(cfg, *language, log); err != nil {
		log.Error("exiting", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, language string, log *slog.Logger) error {
	m := metrics.New()

	registry := buildRegistry(cfg, m, log)
	rec, err := registry.Build(cfg.Recognizer.Provider, cfg.Recognizer.Settings)
	if err != nil {
		return err
	}
	if language != "" {
		rec.SetLanguage(language)
	}

	wireResults(cfg, rec, log)

	if cfg.Chatbox.Enabled && cfg.Chatbox.FollowMute {
		listener, err := chatbox.NewListener(cfg.Chatbox.ListenAddr, muteHandler(rec, log), log)
		if err != nil {
			// The game may not be running yet; transcription works without it.
			log.Warn("mute listener unavailable", slog.String("error", err.Error()))
		} else {
			defer listener.Close()
		}
	}

	if cfg.Ops.Enabled {
		ops := newOpsServer(cfg.Ops.Addr, statusFunc(rec), log)
		go ops.serve()
		defer ops.shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon := runner.New(rec, log, runner.Hooks{
		OnStart: func() {
			log.Info("kikitan running",
				slog.String("provider", cfg.Recognizer.Provider),
				slog.Bool("chatbox", cfg.Chatbox.Enabled))
		},
	})
	return daemon.Run(ctx)
}

// buildRegistry wires every known provider factory. Factories fall back to
// daemon-level audio settings and the DASHSCOPE_API_KEY environment
// variable, so a bare config still works.
func buildRegistry(cfg config.Config, m *metrics.Metrics, log *slog.Logger) *recognizer.Registry {
	registry := recognizer.NewRegistry()

	registry.Register("dashscope", func(settings map[string]any) (recognizer.Recognizer, error) {
		opts, err := dashscope.OptionsFromSettings(settings)
		if err != nil {
			return nil, err
		}
		if opts.APIKey == "" {
			opts.APIKey = os.Getenv("DASHSCOPE_API_KEY")
		}
		if opts.SampleRate == 0 {
			opts.SampleRate = cfg.Audio.SampleRate
		}
		if opts.BlockSize == 0 {
			opts.BlockSize = cfg.Audio.BlockSize
		}
		opts.Capture = &portaudio.Source{}
		opts.Metrics = m
		opts.Logger = log
		return dashscope.New(opts), nil
	})

	registry.Register("mock", func(settings map[string]any) (recognizer.Recognizer, error) {
		return mockrec.FromSettings(settings)
	})

	return registry
}

// wireResults routes transcripts to the chatbox when enabled, and always to
// the log.
func wireResults(cfg config.Config, rec recognizer.Recognizer, log *slog.Logger) {
	var sender *chatbox.Sender
	if cfg.Chatbox.Enabled {
		sender = chatbox.NewSender(chatbox.SenderConfig{
			Address:        cfg.Chatbox.Address,
			Port:           cfg.Chatbox.Port,
			TypingInterval: time.Duration(cfg.Chatbox.TypingIntervalMS) * time.Millisecond,
		}, log)
	}

	rec.OnResult(func(res recognizer.Result) {
		if !res.Final {
			if sender != nil {
				if err := sender.SendTyping(); err != nil {
					log.Debug("typing signal failed", slog.String("error", err.Error()))
				}
			}
			return
		}
		log.Info("transcript", slog.String("text", redact.Text(res.Text)))
		if sender != nil {
			if err := sender.SendMessage(res.Text); err != nil {
				log.Warn("chatbox send failed", slog.String("error", err.Error()))
			}
		}
	})
}

// muteHandler pauses recognition while the player is muted in game.
func muteHandler(rec recognizer.Recognizer, log *slog.Logger) chatbox.MuteHandler {
	return func(muted bool) {
		if muted {
			if err := rec.Stop(); err != nil {
				log.Warn("stop on mute failed", slog.String("error", err.Error()))
			}
			return
		}
		if err := rec.Start(context.Background()); err != nil {
			log.Warn("start on unmute failed", slog.String("error", err.Error()))
		}
	}
}

// statusFunc exposes the richest view the provider offers.
func statusFunc(rec recognizer.Recognizer) func() any {
	return func() any {
		if sn, ok := rec.(interface{ Snapshot() dashscope.Snapshot }); ok {
			return sn.Snapshot()
		}
		return map[string]any{"running": rec.Status()}
	}
}
