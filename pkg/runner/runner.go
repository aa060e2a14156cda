// Package runner owns the process lifecycle: it runs a recognizer until the
// context is canceled and prints the startup banner.
package runner

import (
	"bytes"
	"context"
	"os"
	"sync/atomic"

	"log/slog"

	"github.com/dimiro1/banner"

	"github.com/febilly/kikitan-translator/pkg/recognizer"
)

type State int32

const (
	StateNew State = iota
	StateRunning
	StateStopped
)

// Hooks run at lifecycle edges. Both are optional.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Daemon drives a recognizer for the lifetime of the process.
type Daemon struct {
	rec   recognizer.Recognizer
	log   *slog.Logger
	hooks Hooks
	state atomic.Int32
}

func New(rec recognizer.Recognizer, log *slog.Logger, hooks Hooks) *Daemon {
	if log == nil {
		log = slog.Default()
	}
	return &Daemon{rec: rec, log: log, hooks: hooks}
}

// Run starts the recognizer and blocks until ctx is canceled, then stops it.
// A failed start is returned immediately.
func (d *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.rec.Start(ctx); err != nil {
		d.state.Store(int32(StateStopped))
		return err
	}
	d.state.Store(int32(StateRunning))
	if d.hooks.OnStart != nil {
		d.hooks.OnStart()
	}

	<-ctx.Done()

	d.log.Info("shutting down")
	err := d.rec.Stop()
	d.state.Store(int32(StateStopped))
	if d.hooks.OnStop != nil {
		d.hooks.OnStop()
	}
	return err
}

func (d *Daemon) State() State {
	return State(d.state.Load())
}

const Version = "dev"

// PrintBanner writes the startup banner to stdout.
func PrintBanner() {
	tpl := "{{ .Title \"KIKITAN\" \"\" 0 }}\nVersion: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
