// Package clock holds the simulated time driver. The engine and the trace
// layer only ever read it; the runner loop is the one writer.
package clock

import (
	"fmt"

	"github.com/me/batchsim/pkg/model"
)

// Reader exposes the current simulated time.
type Reader interface {
	Now() model.Tick
}

// Sim is a monotonic simulated clock. The zero value starts at tick 0.
type Sim struct {
	now model.Tick
}

// New returns a clock positioned at start.
func New(start model.Tick) *Sim {
	return &Sim{now: start}
}

// Now returns the current simulated time.
func (c *Sim) Now() model.Tick { return c.now }

// Advance moves the clock forward by d ticks and returns the new time.
func (c *Sim) Advance(d model.Tick) model.Tick {
	c.now += d
	return c.now
}

// AdvanceTo moves the clock to t. Time never runs backwards.
func (c *Sim) AdvanceTo(t model.Tick) error {
	if t < c.now {
		return fmt.Errorf("clock: cannot move from %d back to %d", c.now, t)
	}
	c.now = t
	return nil
}

// Fixed is a Reader pinned to one value, handy for tests.
type Fixed model.Tick

// Now implements Reader.
func (f Fixed) Now() model.Tick { return model.Tick(f) }
