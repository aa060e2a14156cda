package chatbox

import (
	"net"

	"log/slog"

	"github.com/hypebeast/go-osc/osc"

	"github.com/febilly/kikitan-translator/pkg/errorsx"
	"github.com/febilly/kikitan-translator/pkg/logging"
)

// muteParamAddress is the avatar parameter VRChat broadcasts when the
// player toggles their microphone.
const muteParamAddress = "/avatar/parameters/MuteSelf"

// DefaultListenAddr is where VRChat sends avatar OSC updates.
const DefaultListenAddr = "127.0.0.1:9001"

// MuteHandler receives the player's mute state on every update.
type MuteHandler func(muted bool)

// Listener watches the game's OSC output for mute changes. It owns its
// socket, so Close reliably stops the serve loop.
type Listener struct {
	conn net.PacketConn
	log  *slog.Logger
	done chan struct{}
}

// NewListener binds addr and invokes h for every MuteSelf update. Messages
// for other addresses and malformed arguments are ignored.
func NewListener(addr string, h MuteHandler, log *slog.Logger) (*Listener, error) {
	if addr == "" {
		addr = DefaultListenAddr
	}
	clog := logging.NewComponentLogger(log, "chatbox_listener")

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonChatbox)
	}

	dispatcher := osc.NewStandardDispatcher()
	err = dispatcher.AddMsgHandler(muteParamAddress, func(msg *osc.Message) {
		if len(msg.Arguments) == 0 {
			return
		}
		muted, ok := msg.Arguments[0].(bool)
		if !ok {
			return
		}
		clog.Debug("mute state changed", slog.Bool("muted", muted))
		h(muted)
	})
	if err != nil {
		_ = conn.Close()
		return nil, errorsx.Wrap(err, errorsx.ReasonChatbox)
	}

	l := &Listener{conn: conn, log: clog, done: make(chan struct{})}
	go l.serve(&osc.Server{Dispatcher: dispatcher})
	clog.Info("listening for avatar parameters", slog.String("addr", addr))
	return l, nil
}

func (l *Listener) serve(srv *osc.Server) {
	defer close(l.done)
	// Serve exits with an error once the socket is closed.
	if err := srv.Serve(l.conn); err != nil {
		l.log.Debug("listener stopped", slog.String("cause", err.Error()))
	}
}

// Addr returns the bound address, useful when the port was chosen by the
// kernel.
func (l *Listener) Addr() string {
	return l.conn.LocalAddr().String()
}

// Close stops the listener and waits for the serve loop to exit.
func (l *Listener) Close() error {
	err := l.conn.Close()
	<-l.done
	return err
}
