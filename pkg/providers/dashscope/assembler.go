package dashscope

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/febilly/kikitan-translator/pkg/recognizer"
	"github.com/febilly/kikitan-translator/pkg/redact"
)

// assembler accumulates transcript deltas into the utterance in progress
// and hands text to the consumer callback. The service interleaves delta
// and completed events per utterance; completed carries the authoritative
// text and resets the accumulator.
type assembler struct {
	mu   sync.Mutex
	cur  strings.Builder
	emit func(recognizer.Result)
	log  *slog.Logger
}

func newAssembler(log *slog.Logger, emit func(recognizer.Result)) *assembler {
	return &assembler{emit: emit, log: log}
}

// AddDelta appends an incremental fragment and reports the utterance so far
// as a non-final result. Empty accumulations are not reported.
func (a *assembler) AddDelta(delta string) {
	a.mu.Lock()
	a.cur.WriteString(delta)
	text := a.cur.String()
	a.mu.Unlock()

	if text == "" {
		return
	}
	a.log.Debug("transcript delta", slog.String("text", redact.Text(text)))
	a.emit(recognizer.Result{Text: text, Final: false})
}

// Complete replaces whatever was accumulated with the service's final text,
// reports it, and resets for the next utterance.
func (a *assembler) Complete(transcript string) {
	a.mu.Lock()
	a.cur.Reset()
	a.mu.Unlock()

	if transcript == "" {
		return
	}
	a.log.Debug("transcript completed", slog.String("text", redact.Text(transcript)))
	a.emit(recognizer.Result{Text: transcript, Final: true})
}

// Reset drops any partial utterance. Used when the connection is lost so a
// re-negotiated session starts clean.
func (a *assembler) Reset() {
	a.mu.Lock()
	a.cur.Reset()
	a.mu.Unlock()
}
