package engine

import (
	"sync"
	"time"
)

// rampVolumeDuration is the short ramp applied on manual volume
// changes so they never click, independent of the crossfade setting.
const rampVolumeDuration = 0.05

// FadePhase tracks where a gain target is in its fade lifecycle.
type FadePhase int

const (
	FadeIdle FadePhase = iota
	FadingIn
	FadeSteady
	FadingOut
)

func (p FadePhase) String() string {
	switch p {
	case FadingIn:
		return "fading-in"
	case FadeSteady:
		return "steady"
	case FadingOut:
		return "fading-out"
	}
	return "idle"
}

// ramp is a pending linear gain transition.
type ramp struct {
	from, to float64
	start    float64
	duration float64
}

// gainParam is an automatable gain value in [0, 1]. At most one ramp
// is scheduled at a time; installing a new one first freezes the
// value at the current clock time, so superseded automation is
// discarded rather than blended. The render path reads it
// concurrently with the control thread, hence the mutex.
type gainParam struct {
	mu    sync.Mutex
	clock Clock
	base  float64
	r     *ramp
}

func newGainParam(clock Clock, v float64) *gainParam {
	return &gainParam{clock: clock, base: clampGain(v)}
}

func clampGain(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// valueAt evaluates the parameter at time t without locking.
func (g *gainParam) valueAtLocked(t float64) float64 {
	if g.r == nil {
		return g.base
	}
	if t <= g.r.start {
		return g.r.from
	}
	if g.r.duration <= 0 || t >= g.r.start+g.r.duration {
		return g.r.to
	}
	frac := (t - g.r.start) / g.r.duration
	return g.r.from + (g.r.to-g.r.from)*frac
}

// ValueAt returns the automated value at time t.
func (g *gainParam) ValueAt(t float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valueAtLocked(t)
}

// Value returns the value at the current clock time.
func (g *gainParam) Value() float64 {
	return g.ValueAt(g.clock.Now())
}

// cancel clears all scheduled automation, freezing the parameter at
// its current value.
func (g *gainParam) cancel() {
	g.mu.Lock()
	g.base = g.valueAtLocked(g.clock.Now())
	g.r = nil
	g.mu.Unlock()
}

// set cancels pending automation and jumps to v immediately.
func (g *gainParam) set(v float64) {
	g.mu.Lock()
	g.base = clampGain(v)
	g.r = nil
	g.mu.Unlock()
}

// rampTo cancels pending automation and ramps linearly from the
// current value to v over d seconds.
func (g *gainParam) rampTo(v, d float64) {
	g.mu.Lock()
	now := g.clock.Now()
	from := g.valueAtLocked(now)
	g.base = clampGain(v)
	g.r = &ramp{from: from, to: clampGain(v), start: now, duration: d}
	g.mu.Unlock()
}

// rampFromTo cancels pending automation and ramps from an explicit
// start value, discarding the current one.
func (g *gainParam) rampFromTo(from, to, d float64) {
	g.mu.Lock()
	g.base = clampGain(to)
	g.r = &ramp{from: clampGain(from), to: clampGain(to), start: g.clock.Now(), duration: d}
	g.mu.Unlock()
}

// fadeTarget pairs a gain parameter with its fade state machine and
// the single pending completion timer. phase and timer are guarded by
// the engine mutex.
type fadeTarget struct {
	gain  *gainParam
	phase FadePhase
	timer *time.Timer
}

// cancelFadeLocked stops the pending completion timer and clears
// scheduled gain automation. A stale timer that already fired
// recognizes it was superseded by identity comparison and does
// nothing. Caller holds e.mu.
func (e *Engine) cancelFadeLocked(t *fadeTarget) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gain.cancel()
}

// fadeInLocked ramps the target from silence to `to` over d seconds,
// cancelling whatever was pending. d <= 0 applies the value
// immediately. Caller holds e.mu.
func (e *Engine) fadeInLocked(t *fadeTarget, to, d float64) {
	e.cancelFadeLocked(t)
	if d <= 0 {
		t.gain.set(to)
		t.phase = FadeSteady
		return
	}
	t.gain.rampFromTo(0, to, d)
	t.phase = FadingIn
	var tm *time.Timer
	tm = time.AfterFunc(secondsToDuration(d), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if t.timer != tm {
			return
		}
		t.timer = nil
		t.phase = FadeSteady
	})
	t.timer = tm
}

// fadeOutLocked ramps the target from its current value to silence
// over d seconds. onComplete fires once the configured duration has
// elapsed on the wall clock (a timer, not a ramp-completion event)
// and runs with e.mu held. Caller holds e.mu.
func (e *Engine) fadeOutLocked(t *fadeTarget, d float64, onComplete func()) {
	e.cancelFadeLocked(t)
	if d <= 0 {
		t.gain.set(0)
		t.phase = FadeIdle
		if onComplete != nil {
			onComplete()
		}
		return
	}
	t.gain.rampTo(0, d)
	t.phase = FadingOut
	var tm *time.Timer
	tm = time.AfterFunc(secondsToDuration(d), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if t.timer != tm {
			return
		}
		t.timer = nil
		t.phase = FadeIdle
		if onComplete != nil {
			onComplete()
		}
	})
	t.timer = tm
}

// rampVolumeLocked schedules the short anti-click ramp used for
// manual volume adjustment. It replaces scheduled gain values but
// leaves any pending completion timer alone. Caller holds e.mu.
func (e *Engine) rampVolumeLocked(t *fadeTarget, v float64) {
	t.gain.rampTo(v, rampVolumeDuration)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
