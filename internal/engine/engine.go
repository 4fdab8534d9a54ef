package engine

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/analyser"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/catalog"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/config"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/noise"
)

// noiseBufferSeconds is the generated noise loop length.
const noiseBufferSeconds = 2.0

// Engine owns the shared clock and output sink, the layer registry,
// and the noise-buffer cache, and aggregates all layers into one
// master bus. Create one with New (or NewHeadless for tests and
// sink-less operation) and release it with Dispose; a disposed engine
// must be re-created before reuse.
type Engine struct {
	mu sync.Mutex

	opts    config.Options
	catalog catalog.Catalog
	clock   Clock
	sink    Sink

	master       fadeTarget
	masterVolume float64

	layers map[string]*Layer

	noiseCache       map[noise.Color]*noise.Buffer
	noiseGenerations int

	// scratch is the per-layer render buffer, reused across blocks so
	// the real-time pull path does not allocate.
	scratch []float64

	disposed bool
}

// New creates an engine with a real audio output sink. Sink creation
// is the only fatal failure in the engine's lifecycle.
func New(opts config.Options, cat catalog.Catalog) (*Engine, error) {
	sink, err := NewOtoSink(opts.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("engine: initializing audio output: %w", err)
	}
	return newEngine(opts, cat, sink, NewClock())
}

// NewHeadless creates an engine without audio output, rendering only
// when ReadSamples is called. The clock may be nil, in which case a
// monotonic wall clock is used.
func NewHeadless(opts config.Options, cat catalog.Catalog, clock Clock) (*Engine, error) {
	if clock == nil {
		clock = NewClock()
	}
	return newEngine(opts, cat, NewNullSink(), clock)
}

func newEngine(opts config.Options, cat catalog.Catalog, sink Sink, clock Clock) (*Engine, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = config.DefaultSampleRate
	}
	if cat == nil {
		cat = catalog.Default()
	}
	e := &Engine{
		opts:         opts,
		catalog:      cat,
		clock:        clock,
		sink:         sink,
		master:       fadeTarget{gain: newGainParam(clock, opts.MasterVolume)},
		masterVolume: clampGain(opts.MasterVolume),
		layers:       make(map[string]*Layer),
		noiseCache:   make(map[noise.Color]*noise.Buffer),
	}
	if err := sink.Start(e); err != nil {
		return nil, fmt.Errorf("engine: starting sink: %w", err)
	}
	return e, nil
}

// Resume asks the output sink to resume after a period of inactivity
// and returns once it has. No other operation suspends.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return fmt.Errorf("engine: disposed")
	}
	return e.sink.Resume()
}

// Suspend pauses the output sink. Scheduled automation keeps running
// against the wall clock and is not re-anchored on Resume.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return fmt.Errorf("engine: disposed")
	}
	return e.sink.Suspend()
}

// CreateLayer registers a layer with an initial volume. Creating an
// id that already exists returns the existing layer unchanged and
// logs a warning rather than erroring.
func (e *Engine) CreateLayer(id string, volume float64) *Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil
	}
	if l, ok := e.layers[id]; ok {
		fmt.Fprintf(os.Stderr, "warning: layer %q already exists\n", id)
		return l
	}
	l := newLayer(id, volume, e.clock)
	e.layers[id] = l
	return l
}

// Play resolves a sound through the catalog and plays it on the given
// layer: the previous source is torn down, the new one is bound, and
// the layer gain ramps from silence to its stored volume.
func (e *Engine) Play(layerID, category, name string) error {
	entry, err := e.catalogResolve(category, name)
	if err != nil {
		return err
	}
	return e.PlayRef(layerID, resolveRef(entry), category+"/"+name)
}

func (e *Engine) catalogResolve(category, name string) (catalog.Entry, error) {
	e.mu.Lock()
	cat := e.catalog
	e.mu.Unlock()
	return cat.Resolve(category, name)
}

// PlayRef plays an already-resolved sound reference. displayName is
// what LayerInfo and presets report; pass "" to use the reference's
// own notation.
func (e *Engine) PlayRef(layerID string, ref SoundRef, displayName string) error {
	if displayName == "" {
		displayName = ref.String()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return fmt.Errorf("engine: disposed")
	}
	l, ok := e.layers[layerID]
	if !ok {
		return fmt.Errorf("engine: unknown layer %q", layerID)
	}

	e.bindLocked(l, ref)
	l.active = &ref
	l.activeName = displayName
	l.remembered = &ref
	l.rememberedName = displayName
	l.playing = true

	d := 0.0
	if e.opts.EnableCrossfade {
		d = e.opts.FadeDuration
	}
	e.fadeInLocked(&l.fade, l.volume, d)
	return nil
}

// Stop fades the layer out (when crossfade is enabled) and tears the
// source down once the fade duration has elapsed; otherwise teardown
// is immediate. Stopping an unknown or already-stopped layer is a
// logged no-op.
func (e *Engine) Stop(layerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.layers[layerID]
	if !ok {
		fmt.Fprintf(os.Stderr, "warning: stop: unknown layer %q\n", layerID)
		return
	}
	e.stopLocked(l)
}

func (e *Engine) stopLocked(l *Layer) {
	if !l.playing {
		return
	}
	if e.opts.EnableCrossfade {
		e.fadeOutLocked(&l.fade, e.opts.FadeDuration, l.teardownLocked)
		return
	}
	e.cancelFadeLocked(&l.fade)
	l.fade.gain.set(0)
	l.fade.phase = FadeIdle
	l.teardownLocked()
}

// StopAll stops every playing layer. Remembered sound references
// survive, so PlayAll can restore the soundscape.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.layers {
		e.stopLocked(l)
	}
}

// PlayAll re-issues play for every layer that has a remembered sound
// reference but is not currently playing.
func (e *Engine) PlayAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	for _, id := range e.layerIDsLocked() {
		l := e.layers[id]
		if l.playing || l.remembered == nil {
			continue
		}
		ref := *l.remembered
		e.bindLocked(l, ref)
		l.active = &ref
		l.activeName = l.rememberedName
		l.playing = true
		d := 0.0
		if e.opts.EnableCrossfade {
			d = e.opts.FadeDuration
		}
		e.fadeInLocked(&l.fade, l.volume, d)
	}
}

// SetLayerVolume stores the layer's target volume, clamped to [0, 1].
// A playing layer ramps over a short interval to avoid clicks; a
// stopped layer only records the value for its next play.
func (e *Engine) SetLayerVolume(layerID string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.layers[layerID]
	if !ok {
		fmt.Fprintf(os.Stderr, "warning: volume: unknown layer %q\n", layerID)
		return
	}
	l.volume = clampGain(v)
	if l.playing {
		e.rampVolumeLocked(&l.fade, l.volume)
	}
}

// SetMasterVolume ramps the master bus gain to v.
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.masterVolume = clampGain(v)
	e.rampVolumeLocked(&e.master, e.masterVolume)
}

// MasterVolume returns the stored master bus gain.
func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.masterVolume
}

// LayerInfo returns the read-only view of a layer. The second result
// is false for an unknown id.
func (e *Engine) LayerInfo(layerID string) (LayerInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.layers[layerID]
	if !ok {
		return LayerInfo{}, false
	}
	return l.infoLocked(), true
}

// LayerIDs returns all registered layer ids, sorted.
func (e *Engine) LayerIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layerIDsLocked()
}

func (e *Engine) layerIDsLocked() []string {
	ids := make([]string, 0, len(e.layers))
	for id := range e.layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RememberedSound returns the sound name a layer would resume with on
// PlayAll, or "" when it never played.
func (e *Engine) RememberedSound(layerID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.layers[layerID]
	if !ok {
		return "", false
	}
	return l.rememberedName, true
}

// ActiveLayerCount returns how many layers are currently playing.
func (e *Engine) ActiveLayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, l := range e.layers {
		if l.playing {
			n++
		}
	}
	return n
}

// AnalyserSamples returns the layer's most recent post-gain samples
// as unsigned bytes (silence at 128), or nil for an unknown or
// source-less layer.
func (e *Engine) AnalyserSamples(layerID string) []byte {
	e.mu.Lock()
	l, ok := e.layers[layerID]
	if !ok {
		e.mu.Unlock()
		fmt.Fprintf(os.Stderr, "warning: analyser: unknown layer %q\n", layerID)
		return nil
	}
	if l.source == nil {
		e.mu.Unlock()
		return nil
	}
	tap := l.tap
	e.mu.Unlock()
	return tap.ByteTimeDomain()
}

// AnalyserSpectrum returns the magnitude spectrum of the layer's tap
// window, or nil for an unknown or source-less layer.
func (e *Engine) AnalyserSpectrum(layerID string) ([]float64, error) {
	e.mu.Lock()
	l, ok := e.layers[layerID]
	if !ok || l.source == nil {
		e.mu.Unlock()
		return nil, nil
	}
	tap := l.tap
	e.mu.Unlock()
	return analyser.Spectrum(tap.Snapshot())
}

// ApplyOptions applies a changed option set at runtime. The loop flag
// propagates to currently bound sources; a sample-rate change is
// ignored with a warning because the sink and the noise cache are
// sized for the rate the engine was created with.
func (e *Engine) ApplyOptions(opts config.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	if opts.SampleRate != 0 && opts.SampleRate != e.opts.SampleRate {
		fmt.Fprintf(os.Stderr, "warning: sample rate change (%d -> %d) requires engine restart\n",
			e.opts.SampleRate, opts.SampleRate)
		opts.SampleRate = e.opts.SampleRate
	}
	loopChanged := opts.LoopLayers != e.opts.LoopLayers
	e.opts = opts
	if loopChanged {
		for _, l := range e.layers {
			if l.source != nil {
				l.source.SetLoop(opts.LoopLayers)
			}
		}
	}
	if clampGain(opts.MasterVolume) != e.masterVolume {
		e.masterVolume = clampGain(opts.MasterVolume)
		e.rampVolumeLocked(&e.master, e.masterVolume)
	}
}

// Options returns the engine's current option set.
func (e *Engine) Options() config.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Catalog returns the engine's sound catalog.
func (e *Engine) Catalog() catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// Dispose stops every layer immediately, releases the noise cache,
// and tears down the output sink. Double-dispose is a no-op; a
// disposed engine must be re-created before reuse.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	for _, l := range e.layers {
		e.cancelFadeLocked(&l.fade)
		l.teardownLocked()
		l.remembered = nil
		l.rememberedName = ""
	}
	e.cancelFadeLocked(&e.master)
	e.noiseCache = make(map[noise.Color]*noise.Buffer)
	e.disposed = true
	sink := e.sink
	e.mu.Unlock()

	// Closing the sink joins the render path, which takes e.mu in
	// ReadSamples; the lock must not be held across the close.
	if err := sink.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing sink: %v\n", err)
	}
}

// NoiseGenerations reports how many noise buffers have been
// synthesized since the engine was created. It never decreases and
// never exceeds the number of colors: the cache is populate-once.
func (e *Engine) NoiseGenerations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.noiseGenerations
}

// ReadSamples renders the next mono frames into out, mixing every
// playing layer through its gain stage and the master gain. The sink
// calls this from the real-time path; gains are evaluated against the
// engine clock with per-block interpolation so ramps stay smooth.
func (e *Engine) ReadSamples(out []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range out {
		out[i] = 0
	}
	if e.disposed || len(out) == 0 {
		return
	}

	n := len(out)
	t0 := e.clock.Now()
	t1 := t0 + float64(n)/float64(e.opts.SampleRate)

	if len(e.scratch) < n {
		e.scratch = make([]float64, n)
	}
	scratch := e.scratch[:n]
	for _, l := range e.layers {
		if l.source == nil {
			continue
		}
		g0 := l.fade.gain.ValueAt(t0)
		g1 := l.fade.gain.ValueAt(t1)
		for i := 0; i < n; i++ {
			g := g0 + (g1-g0)*float64(i)/float64(n)
			scratch[i] = l.source.Next() * g
		}
		l.tap.PushAll(scratch)
		for i := 0; i < n; i++ {
			out[i] += float32(scratch[i])
		}
	}

	m0 := e.master.gain.ValueAt(t0)
	m1 := e.master.gain.ValueAt(t1)
	for i := 0; i < n; i++ {
		m := m0 + (m1-m0)*float64(i)/float64(n)
		v := out[i] * float32(m)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
}
