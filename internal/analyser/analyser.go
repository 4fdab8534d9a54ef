package analyser

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// DefaultSize is the tap window in samples. Power of two so snapshots
// feed the FFT directly.
const DefaultSize = 1024

// Tap is a ring buffer capturing the most recent post-gain samples of
// one layer. The render path pushes into it; readers take snapshots.
type Tap struct {
	mu  sync.Mutex
	buf []float64
	pos int
}

// NewTap returns a tap holding the last size samples. size must be a
// positive power of two.
func NewTap(size int) (*Tap, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("analyser: tap size must be a power of two, got %d", size)
	}
	return &Tap{buf: make([]float64, size)}, nil
}

// Push appends one sample, overwriting the oldest.
func (t *Tap) Push(s float64) {
	t.mu.Lock()
	t.buf[t.pos] = s
	t.pos = (t.pos + 1) & (len(t.buf) - 1)
	t.mu.Unlock()
}

// PushAll appends a block of samples.
func (t *Tap) PushAll(samples []float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.buf[t.pos] = s
		t.pos = (t.pos + 1) & (len(t.buf) - 1)
	}
	t.mu.Unlock()
}

// Snapshot returns the window in chronological order, oldest first.
func (t *Tap) Snapshot() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.buf))
	n := copy(out, t.buf[t.pos:])
	copy(out[n:], t.buf[:t.pos])
	return out
}

// ByteTimeDomain returns the window as unsigned bytes with silence at
// 128, the layout UI meters and waveform drawers consume.
func (t *Tap) ByteTimeDomain() []byte {
	snap := t.Snapshot()
	out := make([]byte, len(snap))
	for i, s := range snap {
		v := (s + 1) * 0.5 * 255
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// Spectrum returns the magnitude spectrum of samples: len(samples)/2+1
// bins from DC to Nyquist. len(samples) must be a power of two.
func Spectrum(samples []float64) ([]float64, error) {
	n := len(samples)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("analyser: spectrum input length must be a power of two, got %d", n)
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("analyser: fft plan: %w", err)
	}

	in := make([]complex128, n)
	for i, s := range samples {
		// Hann window keeps leakage from swamping slope estimates.
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
		in[i] = complex(s*w, 0)
	}
	freq := make([]complex128, n)
	if err := plan.Forward(freq, in); err != nil {
		return nil, fmt.Errorf("analyser: fft forward: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := 0; k < bins; k++ {
		re[k] = real(freq[k])
		im[k] = imag(freq[k])
	}
	out := make([]float64, bins)
	vecmath.Magnitude(out, re, im)
	return out, nil
}

// BandPower sums squared magnitudes over bins [lo, hi).
func BandPower(mags []float64, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(mags) {
		hi = len(mags)
	}
	var p float64
	for k := lo; k < hi; k++ {
		p += mags[k] * mags[k]
	}
	return p
}
