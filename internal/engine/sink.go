package engine

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// SampleSource produces mono float32 frames for a sink to pull.
type SampleSource interface {
	ReadSamples(out []float32)
}

// Sink is the output side of the engine: the real-time rendering path
// that pulls mixed frames. The engine only schedules parameter
// automation; it never blocks on or polls the sink.
type Sink interface {
	Start(src SampleSource) error
	Suspend() error
	Resume() error
	Close() error
}

// otoSink plays the mixed bus through the platform audio device as
// stereo float32 LE.
type otoSink struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// NewOtoSink opens the platform audio context at the given rate. The
// context is ready when this returns.
func NewOtoSink(sampleRate int) (Sink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &otoSink{ctx: ctx}, nil
}

func (s *otoSink) Start(src SampleSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.player = s.ctx.NewPlayer(&stereoReader{src: src})
	s.player.Play()
	s.started = true
	return nil
}

func (s *otoSink) Suspend() error {
	return s.ctx.Suspend()
}

func (s *otoSink) Resume() error {
	return s.ctx.Resume()
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		err := s.player.Close()
		s.player = nil
		s.started = false
		return err
	}
	return nil
}

// stereoReader adapts a mono SampleSource to the byte stream oto
// pulls: each mono frame is written to both channels as float32 LE.
type stereoReader struct {
	src  SampleSource
	mono []float32
}

func (r *stereoReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if len(r.mono) < frames {
		r.mono = make([]float32, frames)
	}
	mono := r.mono[:frames]
	r.src.ReadSamples(mono)

	for i, s := range mono {
		v := math.Float32bits(s)
		p[i*8] = byte(v)
		p[i*8+1] = byte(v >> 8)
		p[i*8+2] = byte(v >> 16)
		p[i*8+3] = byte(v >> 24)
		p[i*8+4] = byte(v)
		p[i*8+5] = byte(v >> 8)
		p[i*8+6] = byte(v >> 16)
		p[i*8+7] = byte(v >> 24)
	}
	return frames * 8, nil
}

// nullSink discards output. Used headless and in tests, where the
// caller drives rendering by calling ReadSamples directly.
type nullSink struct {
	mu        sync.Mutex
	started   bool
	suspended bool
}

// NewNullSink returns a sink that produces no audio.
func NewNullSink() Sink {
	return &nullSink{}
}

func (s *nullSink) Start(SampleSource) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *nullSink) Suspend() error {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
	return nil
}

func (s *nullSink) Resume() error {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
	return nil
}

func (s *nullSink) Close() error {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return nil
}
