package portaudio

import (
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/febilly/kikitan-translator/pkg/capture"
)

const (
	defaultSampleRate = 16000
	defaultBlockSize  = 4096
)

// Source captures mono float samples from the default input device.
type Source struct{}

func New() *Source {
	return &Source{}
}

var _ capture.Source = (*Source)(nil)

func (s *Source) Open(cfg capture.Config, h capture.BlockHandler) (capture.Stream, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}

	if err := pa.Initialize(); err != nil {
		return nil, err
	}

	buf := make([]float32, cfg.BlockSize)
	paStream, err := pa.OpenDefaultStream(1, 0, float64(cfg.SampleRate), len(buf), buf)
	if err != nil {
		pa.Terminate()
		return nil, err
	}
	if err := paStream.Start(); err != nil {
		paStream.Close()
		pa.Terminate()
		return nil, err
	}

	st := &stream{pa: paStream, buf: buf, done: make(chan struct{})}
	go st.run(h)
	return st, nil
}

type stream struct {
	pa   *pa.Stream
	buf  []float32
	done chan struct{}
	once sync.Once
}

func (s *stream) run(h capture.BlockHandler) {
	for {
		select {
		case <-s.done:
			return
		default:
		}
		// Read blocks until a full buffer is captured. Close stops the
		// stream underneath, which makes Read return an error.
		if err := s.pa.Read(); err != nil {
			return
		}
		block := make([]float32, len(s.buf))
		copy(block, s.buf)
		h(block)
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if stopErr := s.pa.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := s.pa.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		pa.Terminate()
	})
	return err
}
