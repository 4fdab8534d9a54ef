package engine

import "time"

// Clock provides the monotonically increasing time reference, in
// seconds, that gain automation is scheduled and evaluated against.
type Clock interface {
	Now() float64
}

type wallClock struct {
	start time.Time
}

// NewClock returns a monotonic wall clock starting at zero.
func NewClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock is a hand-advanced clock for headless use and tests.
type ManualClock struct {
	t float64
}

func (c *ManualClock) Now() float64 { return c.t }

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d float64) { c.t += d }

// Set jumps the clock to t seconds.
func (c *ManualClock) Set(t float64) { c.t = t }
