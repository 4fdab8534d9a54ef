package engine

import (
	"math"
	"testing"
)

func TestGainParamRamp(t *testing.T) {
	clk := &ManualClock{}
	g := newGainParam(clk, 0)
	g.rampTo(1, 2)

	if v := g.Value(); v != 0 {
		t.Errorf("at start: %g, want 0", v)
	}
	clk.Advance(1)
	if v := g.Value(); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("at midpoint: %g, want 0.5", v)
	}
	clk.Advance(1)
	if v := g.Value(); v != 1 {
		t.Errorf("at end: %g, want 1", v)
	}
	clk.Advance(10)
	if v := g.Value(); v != 1 {
		t.Errorf("past end: %g, want 1", v)
	}
}

func TestGainParamCancelFreezesValue(t *testing.T) {
	clk := &ManualClock{}
	g := newGainParam(clk, 0)
	g.rampTo(1, 2)
	clk.Advance(0.5)
	g.cancel()
	if v := g.Value(); math.Abs(v-0.25) > 1e-9 {
		t.Fatalf("after cancel: %g, want 0.25", v)
	}
	clk.Advance(5)
	if v := g.Value(); math.Abs(v-0.25) > 1e-9 {
		t.Errorf("frozen value drifted to %g", v)
	}
}

func TestGainParamNewRampReplacesOld(t *testing.T) {
	clk := &ManualClock{}
	g := newGainParam(clk, 0)
	g.rampTo(1, 2)
	clk.Advance(1)
	// Halfway up, redirect downward. The new ramp starts from the
	// current value, not the old target.
	g.rampTo(0, 1)
	if v := g.Value(); math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("at redirect: %g, want 0.5", v)
	}
	clk.Advance(0.5)
	if v := g.Value(); math.Abs(v-0.25) > 1e-9 {
		t.Errorf("halfway down: %g, want 0.25", v)
	}
	clk.Advance(0.5)
	if v := g.Value(); v != 0 {
		t.Errorf("at bottom: %g, want 0", v)
	}
}

func TestGainParamSetJumps(t *testing.T) {
	clk := &ManualClock{}
	g := newGainParam(clk, 0)
	g.rampTo(1, 10)
	g.set(0.3)
	if v := g.Value(); v != 0.3 {
		t.Errorf("after set: %g, want 0.3", v)
	}
	clk.Advance(20)
	if v := g.Value(); v != 0.3 {
		t.Errorf("set value drifted to %g", v)
	}
}

func TestGainParamClamps(t *testing.T) {
	clk := &ManualClock{}
	if v := newGainParam(clk, 5).Value(); v != 1 {
		t.Errorf("initial over-range: %g, want 1", v)
	}
	if v := newGainParam(clk, -2).Value(); v != 0 {
		t.Errorf("initial under-range: %g, want 0", v)
	}
	g := newGainParam(clk, 0.5)
	g.rampTo(7, 1)
	clk.Advance(2)
	if v := g.Value(); v != 1 {
		t.Errorf("ramp target over-range: %g, want 1", v)
	}
}

func TestGainParamRampFromTo(t *testing.T) {
	clk := &ManualClock{}
	g := newGainParam(clk, 0.8)
	g.rampFromTo(0, 1, 2)
	if v := g.Value(); v != 0 {
		t.Errorf("at start: %g, want 0 (current value discarded)", v)
	}
	clk.Advance(1)
	if v := g.Value(); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("at midpoint: %g, want 0.5", v)
	}
}

func TestFadePhaseString(t *testing.T) {
	cases := map[FadePhase]string{
		FadeIdle:   "idle",
		FadingIn:   "fading-in",
		FadeSteady: "steady",
		FadingOut:  "fading-out",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", phase, got, want)
		}
	}
}
