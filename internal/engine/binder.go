package engine

import (
	"fmt"
	"os"
	"strconv"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/catalog"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/noise"
)

// bindLocked resolves ref into a concrete source and connects it to
// the layer, retiring the previous source first (a no-op when none is
// bound). Resolution failures are not raised: the layer degrades to
// the fallback oscillator and the failure is logged. Caller holds e.mu.
func (e *Engine) bindLocked(l *Layer, ref SoundRef) {
	if l.source != nil {
		l.source.Close()
		l.source = nil
	}

	loop := e.opts.LoopLayers
	var src Source
	switch ref.Kind {
	case RefNoise:
		buf := e.noiseBufferLocked(ref.Color)
		src = newBufferSource(buf.Samples, loop)
	case RefFile:
		samples, err := loadWAVMono(ref.Path, e.opts.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: falling back to %d Hz tone: %v\n",
				l.id, FallbackFrequency, err)
			src = newOscSource(FallbackFrequency, e.opts.SampleRate)
		} else {
			src = newBufferSource(samples, loop)
		}
	case RefOscillator:
		src = newOscSource(ref.Frequency, e.opts.SampleRate)
	}

	l.source = src
}

// noiseBufferLocked is the idempotent get-or-create on the noise
// cache: a color is synthesized at most once per engine lifetime.
// Caller holds e.mu.
func (e *Engine) noiseBufferLocked(color noise.Color) *noise.Buffer {
	if buf, ok := e.noiseCache[color]; ok {
		return buf
	}
	buf := noise.Generate(color, noiseBufferSeconds, e.opts.SampleRate)
	e.noiseCache[color] = buf
	e.noiseGenerations++
	return buf
}

// resolveRef maps a catalog entry to a SoundRef. Generated entries
// select a noise color or a tone frequency by name; anything else
// falls back to the oscillator.
func resolveRef(entry catalog.Entry) SoundRef {
	if !entry.Generated {
		return FileRef(entry.Path)
	}
	if color, err := noise.ParseColor(entry.Name); err == nil {
		return NoiseRef(color)
	}
	if freq, err := strconv.ParseFloat(entry.Name, 64); err == nil && freq > 0 {
		return OscillatorRef(freq)
	}
	fmt.Fprintf(os.Stderr, "warning: generated sound %s/%s has no generator, using fallback tone\n",
		entry.Category, entry.Name)
	return OscillatorRef(FallbackFrequency)
}
