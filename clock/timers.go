package clock

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrTimerExists   = errors.New("clock: timer already exists")
	ErrTimerNotFound = errors.New("clock: timer not found")
	ErrTimerDuration = errors.New("clock: timer duration must be positive")
)

type TimerKind int

const (
	// Manual timers run once and wait for Reset.
	Manual TimerKind = iota
	// Cyclic timers repeat until deleted and count completed cycles.
	Cyclic
)

// Timer measures a duration against the frame deltas fed to it.
type Timer struct {
	kind    TimerKind
	running bool
	elapsed time.Duration
	period  time.Duration
	fired   bool
	cycles  int
}

func NewTimer(kind TimerKind, period time.Duration) *Timer {
	return &Timer{kind: kind, running: true, period: period}
}

// Add feeds delta into the timer and reports whether it ended or completed
// at least one cycle during this call.
func (t *Timer) Add(delta time.Duration) bool {
	t.fired = false
	if !t.running || t.period <= 0 {
		return false
	}
	switch t.kind {
	case Manual:
		t.elapsed += delta
		if t.elapsed >= t.period {
			t.elapsed = t.period
			t.running = false
			t.fired = true
		}
	case Cyclic:
		total := t.elapsed + delta
		n := int(total / t.period)
		if n > 0 {
			t.fired = true
		}
		t.cycles += n
		t.elapsed = total % t.period
	}
	return t.fired
}

// Cycles returns the cycles completed since the previous call and clears
// the count.
func (t *Timer) Cycles() int {
	n := t.cycles
	t.cycles = 0
	return n
}

func (t *Timer) Elapsed() time.Duration { return t.elapsed }

func (t *Timer) Ended() bool { return !t.running }

// Fired reports whether the last Add ended the timer or completed a cycle.
func (t *Timer) Fired() bool { return t.fired }

func (t *Timer) Reset() {
	t.running = true
	t.elapsed = 0
	t.fired = false
	t.cycles = 0
}

// SetPeriod changes the duration of the timer or of each cycle.
func (t *Timer) SetPeriod(period time.Duration) {
	t.period = period
}

// Timers is a named set of timers advanced once per tick by the scheduler.
type Timers struct {
	timers map[string]*Timer
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[string]*Timer)}
}

func (ts *Timers) Add(name string, kind TimerKind, period time.Duration) (*Timer, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrTimerDuration, name)
	}
	if _, ok := ts.timers[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTimerExists, name)
	}
	t := NewTimer(kind, period)
	ts.timers[name] = t
	return t, nil
}

func (ts *Timers) Get(name string) (*Timer, error) {
	t, ok := ts.timers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimerNotFound, name)
	}
	return t, nil
}

func (ts *Timers) Delete(name string) error {
	if _, ok := ts.timers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTimerNotFound, name)
	}
	delete(ts.timers, name)
	return nil
}

func (ts *Timers) Exists(name string) bool {
	_, ok := ts.timers[name]
	return ok
}

func (ts *Timers) Names() []string {
	names := make([]string, 0, len(ts.timers))
	for name := range ts.timers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Advance feeds delta into every timer.
func (ts *Timers) Advance(delta time.Duration) {
	for _, t := range ts.timers {
		t.Add(delta)
	}
}
