package engine

import (
	"testing"
	"time"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/config"
)

// newTestEngine builds a headless engine with crossfade off and a
// manual clock, the setup most tests want.
func newTestEngine(t *testing.T) (*Engine, *ManualClock) {
	t.Helper()
	clk := &ManualClock{}
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	e, err := NewHeadless(opts, nil, clk)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e, clk
}

// newFadingEngine builds a headless engine with a short real-time
// crossfade for teardown-timing tests.
func newFadingEngine(t *testing.T) *Engine {
	t.Helper()
	opts := config.DefaultOptions()
	opts.EnableCrossfade = true
	opts.FadeDuration = 0.05
	e, err := NewHeadless(opts, nil, nil)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e
}

func TestCreateLayerIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	a := e.CreateLayer("main", 0.5)
	b := e.CreateLayer("main", 0.9)
	if a != b {
		t.Fatal("second create returned a different layer")
	}
	info, _ := e.LayerInfo("main")
	if info.Volume != 0.5 {
		t.Errorf("volume = %g, want original 0.5", info.Volume)
	}
	if got := len(e.LayerIDs()); got != 1 {
		t.Errorf("layer count = %d, want 1", got)
	}
}

func TestPlayUnknownLayer(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Play("ghost", "noise", "pink"); err == nil {
		t.Error("play on unknown layer should fail")
	}
}

func TestPlayUnknownSound(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "plaid"); err == nil {
		t.Error("unknown catalog sound should fail")
	}
	if n := e.ActiveLayerCount(); n != 0 {
		t.Errorf("active layers = %d after failed play", n)
	}
}

func TestStopUnknownLayerIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Stop("ghost")
	e.SetLayerVolume("ghost", 0.5)
	if e.AnalyserSamples("ghost") != nil {
		t.Error("analyser for unknown layer should be nil")
	}
}

func TestPlayReportsSound(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.7)
	if err := e.Play("main", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}
	info, _ := e.LayerInfo("main")
	if !info.IsPlaying {
		t.Error("layer not playing")
	}
	if info.CurrentSound != "noise/pink" {
		t.Errorf("current sound = %q, want noise/pink", info.CurrentSound)
	}
	if n := e.ActiveLayerCount(); n != 1 {
		t.Errorf("active layers = %d, want 1", n)
	}
	// Crossfade is off, so the gain jumps straight to the volume.
	e.mu.Lock()
	g := e.layers["main"].fade.gain.Value()
	e.mu.Unlock()
	if g != 0.7 {
		t.Errorf("gain = %g, want 0.7", g)
	}
}

func TestNoiseCachePopulateOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("a", 0.5)
	e.CreateLayer("b", 0.5)
	for i := 0; i < 3; i++ {
		if err := e.Play("a", "noise", "pink"); err != nil {
			t.Fatalf("play: %v", err)
		}
	}
	if err := e.Play("b", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if n := e.NoiseGenerations(); n != 1 {
		t.Errorf("pink generated %d times, want 1", n)
	}
	if err := e.Play("b", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if n := e.NoiseGenerations(); n != 2 {
		t.Errorf("generations = %d after second color, want 2", n)
	}
}

func TestStopTearsDownImmediatelyWithoutCrossfade(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "brown"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Stop("main")
	info, _ := e.LayerInfo("main")
	if info.IsPlaying {
		t.Error("layer still playing after stop")
	}
	if info.CurrentSound != "" {
		t.Errorf("current sound = %q after stop, want empty", info.CurrentSound)
	}
	if e.AnalyserSamples("main") != nil {
		t.Error("analyser should be nil once the source is gone")
	}
	// The reference survives for PlayAll.
	if name, _ := e.RememberedSound("main"); name != "noise/brown" {
		t.Errorf("remembered = %q, want noise/brown", name)
	}
	// Double stop is a no-op.
	e.Stop("main")
}

func TestStopWithCrossfadeDelaysTeardown(t *testing.T) {
	e := newFadingEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "tone", "440"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Stop("main")
	info, _ := e.LayerInfo("main")
	if !info.IsPlaying {
		t.Fatal("layer torn down before the fade-out finished")
	}
	time.Sleep(300 * time.Millisecond)
	info, _ = e.LayerInfo("main")
	if info.IsPlaying {
		t.Error("layer still playing long after the fade-out")
	}
	if info.CurrentSound != "" {
		t.Errorf("current sound = %q after fade-out, want empty", info.CurrentSound)
	}
}

func TestPlayDuringFadeOutCancelsTeardown(t *testing.T) {
	e := newFadingEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "tone", "440"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Stop("main")
	// Restart before the fade-out completion fires. The stale timer
	// must not tear the new source down.
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("replay: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	info, _ := e.LayerInfo("main")
	if !info.IsPlaying {
		t.Error("restarted layer was torn down by a stale fade timer")
	}
	if info.CurrentSound != "noise/white" {
		t.Errorf("current sound = %q, want noise/white", info.CurrentSound)
	}
}

func TestSetLayerVolumeWhileStopped(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	e.SetLayerVolume("main", 0.9)

	info, _ := e.LayerInfo("main")
	if info.Volume != 0.9 {
		t.Errorf("stored volume = %g, want 0.9", info.Volume)
	}
	// The gain stage stays silent until the next play.
	e.mu.Lock()
	g := e.layers["main"].fade.gain.Value()
	e.mu.Unlock()
	if g != 0 {
		t.Errorf("gain = %g while stopped, want 0", g)
	}

	if err := e.Play("main", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	g = e.layers["main"].fade.gain.Value()
	e.mu.Unlock()
	if g != 0.9 {
		t.Errorf("gain = %g after play, want stored 0.9", g)
	}
}

func TestSetLayerVolumeClamps(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	e.SetLayerVolume("main", 1.7)
	if info, _ := e.LayerInfo("main"); info.Volume != 1 {
		t.Errorf("volume = %g, want clamped 1", info.Volume)
	}
	e.SetLayerVolume("main", -0.3)
	if info, _ := e.LayerInfo("main"); info.Volume != 0 {
		t.Errorf("volume = %g, want clamped 0", info.Volume)
	}
}

func TestStopAllPlayAllRestores(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("amb", 0.6)
	e.CreateLayer("tone", 0.4)
	e.CreateLayer("idle", 0.5) // never played, must stay silent
	if err := e.Play("amb", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := e.Play("tone", "tone", "440"); err != nil {
		t.Fatalf("play: %v", err)
	}

	e.StopAll()
	if n := e.ActiveLayerCount(); n != 0 {
		t.Fatalf("active layers = %d after StopAll, want 0", n)
	}

	e.PlayAll()
	if n := e.ActiveLayerCount(); n != 2 {
		t.Fatalf("active layers = %d after PlayAll, want 2", n)
	}
	info, _ := e.LayerInfo("amb")
	if info.CurrentSound != "noise/pink" {
		t.Errorf("amb restored %q, want noise/pink", info.CurrentSound)
	}
	info, _ = e.LayerInfo("idle")
	if info.IsPlaying {
		t.Error("never-played layer started on PlayAll")
	}
}

func TestPlayAllSkipsAlreadyPlaying(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	src := e.layers["main"].source
	e.mu.Unlock()

	e.PlayAll()
	e.mu.Lock()
	same := e.layers["main"].source == src
	e.mu.Unlock()
	if !same {
		t.Error("PlayAll rebound a layer that was already playing")
	}
}

func TestMissingFileFallsBackToOscillator(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.PlayRef("main", FileRef("/no/such/file.wav"), ""); err != nil {
		t.Fatalf("PlayRef: %v", err)
	}
	info, _ := e.LayerInfo("main")
	if !info.IsPlaying {
		t.Fatal("layer not playing after fallback")
	}
	e.mu.Lock()
	osc, ok := e.layers["main"].source.(*oscSource)
	e.mu.Unlock()
	if !ok {
		t.Fatal("fallback source is not an oscillator")
	}
	if osc.freq != FallbackFrequency {
		t.Errorf("fallback frequency = %g, want %d", osc.freq, FallbackFrequency)
	}
}

func TestPlayReplacesSource(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	old := e.layers["main"].source.(*bufferSource)
	e.mu.Unlock()

	if err := e.Play("main", "tone", "440"); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !old.closed.Load() {
		t.Error("previous source was not closed")
	}
	info, _ := e.LayerInfo("main")
	if info.CurrentSound != "tone/440" {
		t.Errorf("current sound = %q, want tone/440", info.CurrentSound)
	}
}

func TestMasterVolume(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetMasterVolume(0.25)
	if v := e.MasterVolume(); v != 0.25 {
		t.Errorf("master = %g, want 0.25", v)
	}
	e.SetMasterVolume(3)
	if v := e.MasterVolume(); v != 1 {
		t.Errorf("master = %g, want clamped 1", v)
	}
}

func TestApplyOptionsPropagatesLoop(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}

	opts := e.Options()
	opts.LoopLayers = false
	e.ApplyOptions(opts)
	e.mu.Lock()
	looping := e.layers["main"].source.(*bufferSource).loop.Load()
	e.mu.Unlock()
	if looping {
		t.Error("source still looping after loop disabled")
	}

	opts.LoopLayers = true
	e.ApplyOptions(opts)
	e.mu.Lock()
	looping = e.layers["main"].source.(*bufferSource).loop.Load()
	e.mu.Unlock()
	if !looping {
		t.Error("source not looping after loop re-enabled")
	}
}

func TestApplyOptionsIgnoresSampleRateChange(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.Options().SampleRate
	opts := e.Options()
	opts.SampleRate = before * 2
	e.ApplyOptions(opts)
	if got := e.Options().SampleRate; got != before {
		t.Errorf("sample rate changed to %d, want %d kept", got, before)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	clk := &ManualClock{}
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	e, err := NewHeadless(opts, nil, clk)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}

	e.Dispose()
	e.Dispose()

	if n := e.ActiveLayerCount(); n != 0 {
		t.Errorf("active layers = %d after dispose, want 0", n)
	}
	if name, _ := e.RememberedSound("main"); name != "" {
		t.Errorf("remembered = %q after dispose, want cleared", name)
	}
	if l := e.CreateLayer("late", 0.5); l != nil {
		t.Error("CreateLayer should refuse on a disposed engine")
	}
	if err := e.PlayRef("main", NoiseRef("white"), ""); err == nil {
		t.Error("PlayRef should fail on a disposed engine")
	}
}

// renderingSink pulls samples from inside Close, the way a real output
// backend's device goroutine races engine teardown.
type renderingSink struct {
	src SampleSource
}

func (s *renderingSink) Start(src SampleSource) error { s.src = src; return nil }
func (s *renderingSink) Suspend() error               { return nil }
func (s *renderingSink) Resume() error                { return nil }

func (s *renderingSink) Close() error {
	s.src.ReadSamples(make([]float32, 64))
	return nil
}

func TestDisposeDoesNotBlockRenderPath(t *testing.T) {
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	e, err := newEngine(opts, nil, &renderingSink{}, &ManualClock{})
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	e.CreateLayer("main", 0.5)
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Dispose()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispose blocked against a rendering sink")
	}
}

func TestSetLayerVolumeRampsWhilePlaying(t *testing.T) {
	e, clk := newTestEngine(t)
	e.CreateLayer("main", 0.2)
	if err := e.Play("main", "noise", "pink"); err != nil {
		t.Fatalf("play: %v", err)
	}

	e.SetLayerVolume("main", 0.8)
	gain := func() float64 {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.layers["main"].fade.gain.Value()
	}
	// The change ramps over ~50 ms instead of jumping.
	if g := gain(); g != 0.2 {
		t.Fatalf("gain = %g at ramp start, want 0.2", g)
	}
	clk.Advance(rampVolumeDuration / 2)
	if g := gain(); g <= 0.2 || g >= 0.8 {
		t.Errorf("gain = %g mid-ramp, want between 0.2 and 0.8", g)
	}
	clk.Advance(rampVolumeDuration / 2)
	if g := gain(); g != 0.8 {
		t.Errorf("gain = %g after ramp, want 0.8", g)
	}
}

func TestReadSamplesSilentWhenNothingPlays(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 0.5)
	out := make([]float32, 256)
	e.ReadSamples(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %g, want 0", i, v)
		}
	}
}

func TestReadSamplesRendersAndClamps(t *testing.T) {
	clk := &ManualClock{}
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	opts.MasterVolume = 1
	e, err := NewHeadless(opts, nil, clk)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	t.Cleanup(e.Dispose)

	// Two in-phase full-volume tones sum above 1 before the clamp.
	e.CreateLayer("a", 1)
	e.CreateLayer("b", 1)
	for _, id := range []string{"a", "b"} {
		if err := e.PlayRef(id, OscillatorRef(441), ""); err != nil {
			t.Fatalf("play %s: %v", id, err)
		}
	}

	out := make([]float32, 512)
	e.ReadSamples(out)

	var peak float32
	for i, v := range out {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d = %g outside [-1, 1]", i, v)
		}
		if v > peak {
			peak = v
		}
	}
	if peak < 0.9 {
		t.Errorf("peak = %g, expected the mix to be loud", peak)
	}
	if peak > 0.999 && out[0] != 0 {
		t.Errorf("first sample = %g, want 0 at sine phase zero", out[0])
	}
}

func TestReadSamplesAppliesMasterGain(t *testing.T) {
	clk := &ManualClock{}
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	opts.MasterVolume = 0
	e, err := NewHeadless(opts, nil, clk)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	t.Cleanup(e.Dispose)

	e.CreateLayer("main", 1)
	if err := e.PlayRef("main", OscillatorRef(441), ""); err != nil {
		t.Fatalf("play: %v", err)
	}
	out := make([]float32, 256)
	e.ReadSamples(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %g with zero master gain", i, v)
		}
	}
}

func TestReadSamplesReusesRenderBuffer(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 1)
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}
	out := make([]float32, 256)
	e.ReadSamples(out)

	e.mu.Lock()
	first := &e.scratch[0]
	e.mu.Unlock()

	e.ReadSamples(out)
	e.mu.Lock()
	second := &e.scratch[0]
	e.mu.Unlock()
	if first != second {
		t.Error("render buffer reallocated between same-size blocks")
	}
}

func TestAnalyserSamplesAfterRender(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateLayer("main", 1)
	if err := e.Play("main", "noise", "white"); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.ReadSamples(make([]float32, 2048))

	samples := e.AnalyserSamples("main")
	if samples == nil {
		t.Fatal("analyser returned nil for a playing layer")
	}
	deviated := false
	for _, b := range samples {
		if b < 120 || b > 136 {
			deviated = true
			break
		}
	}
	if !deviated {
		t.Error("analyser window shows no signal after rendering white noise")
	}

	mags, err := e.AnalyserSpectrum("main")
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	if len(mags) == 0 {
		t.Error("spectrum is empty for a playing layer")
	}
}
