package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/febilly/kikitan-translator/pkg/recognizer"
)

type fakeRecognizer struct {
	mu       sync.Mutex
	running  bool
	startErr error
	starts   int
	stops    int
}

func (f *fakeRecognizer) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
	return nil
}

func (f *fakeRecognizer) SetLanguage(string) {}

func (f *fakeRecognizer) Status() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRecognizer) OnResult(recognizer.Callback) {}

func TestDaemonRunUntilCanceled(t *testing.T) {
	rec := &fakeRecognizer{}
	started := make(chan struct{})
	stopped := make(chan struct{})
	d := New(rec, nil, Hooks{
		OnStart: func() { close(started) },
		OnStop:  func() { close(stopped) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("start hook never ran")
	}
	if d.State() != StateRunning {
		t.Errorf("state = %v, want running", d.State())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	select {
	case <-stopped:
	default:
		t.Error("stop hook never ran")
	}
	if d.State() != StateStopped {
		t.Errorf("state = %v, want stopped", d.State())
	}
	if rec.stops != 1 {
		t.Errorf("stops = %d, want 1", rec.stops)
	}
}

func TestDaemonStartFailure(t *testing.T) {
	rec := &fakeRecognizer{startErr: errors.New("no device")}
	d := New(rec, nil, Hooks{})

	err := d.Run(context.Background())
	if err == nil {
		t.Fatal("run succeeded with failing start")
	}
	if d.State() != StateStopped {
		t.Errorf("state = %v, want stopped", d.State())
	}
}
