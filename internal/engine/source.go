package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/noise"
)

// FallbackFrequency is the oscillator tone substituted when a
// file-backed sound cannot be resolved.
const FallbackFrequency = 220

// RefKind tags the SoundRef variant.
type RefKind int

const (
	RefFile RefKind = iota
	RefNoise
	RefOscillator
)

// SoundRef identifies a playable sound: a file-backed recording, a
// generated noise color, or an oscillator tone. It is resolved to a
// concrete Source by the binder.
type SoundRef struct {
	Kind      RefKind
	Path      string      // RefFile
	Color     noise.Color // RefNoise
	Frequency float64     // RefOscillator
}

// FileRef references a sound file on disk.
func FileRef(path string) SoundRef {
	return SoundRef{Kind: RefFile, Path: path}
}

// NoiseRef references a procedurally generated noise color.
func NoiseRef(color noise.Color) SoundRef {
	return SoundRef{Kind: RefNoise, Color: color}
}

// OscillatorRef references a continuous sine tone.
func OscillatorRef(freq float64) SoundRef {
	return SoundRef{Kind: RefOscillator, Frequency: freq}
}

func (r SoundRef) String() string {
	switch r.Kind {
	case RefNoise:
		return "noise/" + string(r.Color)
	case RefOscillator:
		return fmt.Sprintf("tone/%g", r.Frequency)
	}
	return "file/" + r.Path
}

// Source is the active sound-producing unit bound to a layer. Next is
// called only from the render path; SetLoop and Close may be called
// from the control thread.
type Source interface {
	// Next returns the next mono sample in [-1, 1]. A finished
	// non-looping source returns 0 forever.
	Next() float64
	// SetLoop toggles looping where the source supports it.
	SetLoop(bool)
	// Close releases the source. Further Next calls return 0.
	Close()
}

// bufferSource plays a fixed sample buffer, optionally as a seamless
// loop. Backs both generated-noise and file-backed sounds.
type bufferSource struct {
	samples []float64
	pos     int
	loop    atomic.Bool
	closed  atomic.Bool
	done    bool
}

func newBufferSource(samples []float64, loop bool) *bufferSource {
	s := &bufferSource{samples: samples}
	s.loop.Store(loop)
	return s
}

func (s *bufferSource) Next() float64 {
	if s.done || s.closed.Load() || len(s.samples) == 0 {
		return 0
	}
	v := s.samples[s.pos]
	s.pos++
	if s.pos >= len(s.samples) {
		if s.loop.Load() {
			s.pos = 0
		} else {
			s.done = true
		}
	}
	return v
}

func (s *bufferSource) SetLoop(loop bool) {
	s.loop.Store(loop)
	if loop && s.done {
		s.done = false
		s.pos = 0
	}
}

func (s *bufferSource) Close() {
	s.closed.Store(true)
}

// oscSource is a continuous sine oscillator, used both as an explicit
// selection and as the universal fallback.
type oscSource struct {
	freq       float64
	phase      float64
	sampleRate float64
	closed     atomic.Bool
}

func newOscSource(freq float64, sampleRate int) *oscSource {
	return &oscSource{freq: freq, sampleRate: float64(sampleRate)}
}

func (s *oscSource) Next() float64 {
	if s.closed.Load() {
		return 0
	}
	v := math.Sin(s.phase)
	s.phase += 2 * math.Pi * s.freq / s.sampleRate
	if s.phase > 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
	return v
}

func (s *oscSource) SetLoop(bool) {}

func (s *oscSource) Close() {
	s.closed.Store(true)
}
