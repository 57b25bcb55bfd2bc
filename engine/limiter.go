package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Strategy selects how the runner paces ticks.
type Strategy int

const (
	// StrategySleep sleeps away whatever is left of the target frame time.
	StrategySleep Strategy = iota
	// StrategyUnlimited starts the next tick immediately.
	StrategyUnlimited
)

func (s Strategy) String() string {
	if s == StrategyUnlimited {
		return "unlimited"
	}
	return "sleep"
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sleep":
		return StrategySleep, nil
	case "unlimited":
		return StrategyUnlimited, nil
	}
	return 0, fmt.Errorf("engine: unknown frame strategy %q", s)
}

const DefaultFPS = 60

// FrameLimiter paces the simulation loop.
type FrameLimiter struct {
	strategy Strategy
	target   time.Duration
	now      func() time.Time
	start    time.Time
}

func NewFrameLimiter(strategy Strategy, fps int) *FrameLimiter {
	if fps <= 0 {
		fps = DefaultFPS
	}
	l := &FrameLimiter{strategy: strategy, now: time.Now}
	if strategy == StrategySleep {
		l.target = time.Second / time.Duration(fps)
	}
	return l
}

// Target is the frame time the limiter aims for; zero when unlimited.
func (l *FrameLimiter) Target() time.Duration {
	return l.target
}

func (l *FrameLimiter) StartFrame() {
	l.start = l.now()
}

// Remaining is how long Wait would sleep right now.
func (l *FrameLimiter) Remaining() time.Duration {
	if l.strategy == StrategyUnlimited {
		return 0
	}
	left := l.target - l.now().Sub(l.start)
	if left < 0 {
		return 0
	}
	return left
}

// Wait blocks until the frame's time is used up or ctx is done.
func (l *FrameLimiter) Wait(ctx context.Context) error {
	left := l.Remaining()
	if left <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(left)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
