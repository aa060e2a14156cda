package recognizer

import "context"

// Result is one transcript update from a running recognizer.
type Result struct {
	Text  string
	Final bool
}

// Callback receives transcript updates. Implementations invoke it without
// holding internal locks.
type Callback func(Result)

// Recognizer is the capability surface of a streaming recognition session.
type Recognizer interface {
	// Start brings the session up. It is a no-op when already running and
	// fails fast on configuration problems such as a blank credential.
	Start(ctx context.Context) error

	// Stop tears the session down. Idempotent from any state.
	Stop() error

	// SetLanguage stores a new language tag; a running session restarts
	// shortly afterwards to renegotiate with it.
	SetLanguage(tag string)

	// Status reports whether the session is running (anything but idle).
	Status() bool

	// OnResult registers the transcript consumer.
	OnResult(fn Callback)
}
