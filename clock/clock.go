// Package clock measures frame time for the simulation loop and provides
// named timers built on top of it.
package clock

import "time"

// Time is the per-tick view of the clock, stored on the world as a resource.
type Time struct {
	Delta   time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// Clock tracks elapsed wall-time per tick. With a fixed step it ignores the
// wall clock entirely and every tick advances by exactly that step.
type Clock struct {
	now   func() time.Time
	fixed time.Duration

	last    time.Time
	started bool
	current Time
}

type Option func(*Clock)

// WithSource replaces time.Now, mostly for tests.
func WithSource(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithFixedStep makes every tick report step as its delta.
func WithFixedStep(step time.Duration) Option {
	return func(c *Clock) { c.fixed = step }
}

func New(opts ...Option) *Clock {
	c := &Clock{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick finishes the current frame and returns its timing. The first tick of
// a wall clock reports a zero delta.
func (c *Clock) Tick() Time {
	var delta time.Duration
	if c.fixed > 0 {
		delta = c.fixed
	} else {
		now := c.now()
		if c.started {
			delta = now.Sub(c.last)
			if delta < 0 {
				delta = 0
			}
		}
		c.last = now
		c.started = true
	}
	c.current.Frame++
	c.current.Delta = delta
	c.current.Elapsed += delta
	return c.current
}

// Now returns the timing of the last tick.
func (c *Clock) Now() Time {
	return c.current
}
