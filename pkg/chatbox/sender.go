// Package chatbox bridges transcripts to the VRChat OSC chatbox: final
// transcripts become chat messages, interim ones light the typing
// indicator, and avatar mute changes flow back through the listener.
package chatbox

import (
	"sync"
	"time"

	"log/slog"

	"github.com/hypebeast/go-osc/osc"

	"github.com/febilly/kikitan-translator/pkg/errorsx"
	"github.com/febilly/kikitan-translator/pkg/logging"
	"github.com/febilly/kikitan-translator/pkg/redact"
)

const (
	inputAddress  = "/chatbox/input"
	typingAddress = "/chatbox/typing"

	// maxMessageRunes is the most the in-game chatbox will display.
	maxMessageRunes = 144

	defaultAddress        = "127.0.0.1"
	defaultPort           = 9000
	defaultTypingInterval = time.Second
)

type SenderConfig struct {
	Address string
	Port    int

	// TypingInterval is the minimum gap between typing signals, so interim
	// transcript bursts don't flood the game.
	TypingInterval time.Duration
}

func (c SenderConfig) withDefaults() SenderConfig {
	if c.Address == "" {
		c.Address = defaultAddress
	}
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if c.TypingInterval <= 0 {
		c.TypingInterval = defaultTypingInterval
	}
	return c
}

// Sender publishes chatbox messages over OSC. Safe for concurrent use.
type Sender struct {
	client *osc.Client
	cfg    SenderConfig
	log    *slog.Logger

	mu         sync.Mutex
	lastTyping time.Time
}

func NewSender(cfg SenderConfig, log *slog.Logger) *Sender {
	cfg = cfg.withDefaults()
	return &Sender{
		client: osc.NewClient(cfg.Address, cfg.Port),
		cfg:    cfg,
		log:    logging.NewComponentLogger(log, "chatbox"),
	}
}

// SendMessage publishes text straight to the chatbox, bypassing the in-game
// keyboard. Text longer than the chatbox can display is cut at a rune
// boundary.
func (s *Sender) SendMessage(text string) error {
	msg := osc.NewMessage(inputAddress)
	msg.Append(trimRunes(text, maxMessageRunes))
	msg.Append(true)
	if err := s.client.Send(msg); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonChatbox)
	}
	s.log.Debug("chatbox message sent", slog.String("text", redact.Text(text)))
	return nil
}

// SendTyping lights the typing indicator. Calls inside the configured
// interval are coalesced into nothing.
func (s *Sender) SendTyping() error {
	s.mu.Lock()
	if time.Since(s.lastTyping) < s.cfg.TypingInterval {
		s.mu.Unlock()
		return nil
	}
	s.lastTyping = time.Now()
	s.mu.Unlock()

	msg := osc.NewMessage(typingAddress)
	msg.Append(true)
	if err := s.client.Send(msg); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonChatbox)
	}
	return nil
}

func trimRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
