package capture

// Config describes the fixed-rate mono stream a source must deliver.
type Config struct {
	SampleRate int // samples per second
	BlockSize  int // samples per delivered block
}

// BlockHandler receives one mono block of float samples in [-1, 1]. It is
// called from the source's capture goroutine and must not block for long.
type BlockHandler func(samples []float32)

// Source acquires an audio device and pushes sample blocks to a handler.
type Source interface {
	Open(cfg Config, h BlockHandler) (Stream, error)
}

// Stream is one open capture pipeline.
type Stream interface {
	Close() error
}
