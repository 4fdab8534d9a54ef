package noise

import (
	"fmt"
	"math/rand/v2"
)

// Color names a noise spectral profile. Each color has its own
// generation algorithm; the perceived difference is how energy is
// distributed across frequency (white is flat, pink falls ~3 dB per
// octave, brown ~6 dB per octave).
type Color string

const (
	White Color = "white"
	Pink  Color = "pink"
	Brown Color = "brown"
)

// Colors lists every supported noise color.
var Colors = []Color{White, Pink, Brown}

// ParseColor validates a color name.
func ParseColor(s string) (Color, error) {
	switch Color(s) {
	case White, Pink, Brown:
		return Color(s), nil
	}
	return "", fmt.Errorf("noise: unknown color %q", s)
}

// Buffer holds a fixed-length run of mono samples meant to be played
// as a seamless loop. Samples are never mutated after generation.
type Buffer struct {
	Color      Color
	Samples    []float64
	SampleRate int
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Generate produces a noise buffer of the given color and length.
// Output is deterministic only in statistical character: values stay
// roughly within [-1, 1] after per-color compensation scaling, and the
// spectral slope matches the color, but exact samples differ per call.
func Generate(color Color, durationSeconds float64, sampleRate int) *Buffer {
	n := int(durationSeconds * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	samples := make([]float64, n)
	switch color {
	case Pink:
		fillPink(samples)
	case Brown:
		fillBrown(samples)
	default:
		fillWhite(samples)
	}
	return &Buffer{Color: color, Samples: samples, SampleRate: sampleRate}
}

func fillWhite(out []float64) {
	for i := range out {
		out[i] = rand.Float64()*2 - 1
	}
}

// fillPink approximates a 1/f spectrum with six first-order recursive
// filters plus a direct white term (Paul Kellet's refined method).
// b6 carries a one-sample-delayed white contribution into the next
// iteration. The 0.11 output scale compensates the filter-bank gain.
func fillPink(out []float64) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range out {
		white := rand.Float64()*2 - 1
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		out[i] = (b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*0.5362) * 0.11
		b6 = white * 0.115926
	}
}

// fillBrown integrates white noise through a leaky accumulator for a
// 1/f^2 spectrum, then scales by 3.5 to restore perceptual loudness.
func fillBrown(out []float64) {
	var prev float64
	for i := range out {
		white := rand.Float64()*2 - 1
		prev = (prev + 0.02*white) / 1.02
		out[i] = prev * 3.5
	}
}
