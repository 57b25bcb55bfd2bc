// Package animation implements per-entity animation timelines: timed
// modifiers that move, re-frame, tint, blink, or type out an entity, played
// once, looping, or ping-pong.
package animation

import (
	"time"

	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs/component"
)

type Mode int

const (
	Once Mode = iota
	Looping
	PingPong
)

func (m Mode) String() string {
	switch m {
	case Once:
		return "once"
	case Looping:
		return "looping"
	case PingPong:
		return "pingpong"
	}
	return "unknown"
}

type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return "unknown"
}

type Direction int

const (
	Forward Direction = iota
	Backward
)

// Target points at the components an animation may mutate. Nil fields are
// components the entity does not carry; modifiers for them are skipped.
type Target struct {
	Transform  *component.Transform
	Sprite     *component.Sprite
	Color      *component.Color
	Visibility *component.Visibility
	Text       *component.Text
}

// Empty reports whether the target has nothing to animate.
func (t *Target) Empty() bool {
	return t.Transform == nil && t.Sprite == nil && t.Color == nil && t.Visibility == nil && t.Text == nil
}

// Report summarises one Advance call.
type Report struct {
	Steps    int
	Consumed time.Duration
	Passes   int
	Finished bool
}

type baseline struct {
	transform  *component.Transform
	frame      *int
	color      *component.Color
	visibility *component.Visibility
	text       *string
}

// Animation is an ordered set of modifiers sharing one duration. It is not
// safe for concurrent use.
type Animation struct {
	duration  time.Duration
	modifiers []*Modifier
	mode      Mode
	state     State
	direction Direction

	stopAtEnd    bool
	needBaseline bool
	restore      bool
	base         baseline
}

// New builds an Idle animation. Each modifier's keyframe is duration divided
// by its step count, so the steps of every modifier fit inside duration.
func New(duration time.Duration, modifiers ...Modifier) (*Animation, error) {
	if duration <= 0 {
		return nil, configError("duration must be positive, got %s", duration)
	}
	if len(modifiers) == 0 {
		return nil, configError("animation has no modifiers")
	}
	a := &Animation{duration: duration}
	for i := range modifiers {
		m := modifiers[i]
		if err := m.validate(); err != nil {
			return nil, err
		}
		m.keyframe = duration / time.Duration(m.Steps())
		if m.keyframe <= 0 {
			return nil, configError("duration %s too short for %d %s steps", duration, m.Steps(), m.Kind)
		}
		m.timer = clock.NewTimer(clock.Cyclic, m.keyframe)
		m.reset()
		a.modifiers = append(a.modifiers, &m)
	}
	return a, nil
}

// MustNew is New for static animation tables; it panics on bad configuration.
func MustNew(duration time.Duration, modifiers ...Modifier) *Animation {
	a, err := New(duration, modifiers...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Animation) Duration() time.Duration { return a.duration }
func (a *Animation) Mode() Mode              { return a.mode }
func (a *Animation) State() State            { return a.state }
func (a *Animation) Direction() Direction    { return a.direction }
func (a *Animation) Running() bool           { return a.state == Running }

// Modifiers returns the modifiers in declaration order.
func (a *Animation) Modifiers() []*Modifier {
	return a.modifiers
}

// Start begins playback from the first keyframe. It returns false and does
// nothing when the animation is already running.
func (a *Animation) Start(mode Mode) bool {
	if a.state == Running {
		return false
	}
	a.mode = mode
	a.state = Running
	a.direction = Forward
	a.stopAtEnd = false
	a.needBaseline = true
	for _, m := range a.modifiers {
		m.reset()
		m.variant = false
	}
	return true
}

// Stop halts playback. With reset the components go back to the values
// they had when the animation started; the restore is applied by the next
// Advance, which the driver issues in the same tick.
func (a *Animation) Stop(reset bool) bool {
	if a.state != Running && a.state != Paused {
		return false
	}
	a.state = Idle
	a.stopAtEnd = false
	if reset && !a.needBaseline {
		a.restore = true
	}
	a.needBaseline = false
	return true
}

// StopAtEnd lets the current pass finish and then stops as if the
// animation were a one-shot.
func (a *Animation) StopAtEnd() bool {
	if a.state != Running && a.state != Paused {
		return false
	}
	a.stopAtEnd = true
	return true
}

func (a *Animation) Pause() bool {
	if a.state != Running {
		return false
	}
	a.state = Paused
	return true
}

func (a *Animation) Resume() bool {
	if a.state != Paused {
		return false
	}
	a.state = Running
	return true
}

// NeedsAdvance reports whether the driver has work for this animation.
func (a *Animation) NeedsAdvance() bool {
	return a.state == Running || a.restore
}

// Advance is the per-tick step. Time left over when a pass completes is
// dropped so the next pass starts on a keyframe boundary.
func (a *Animation) Advance(elapsed time.Duration, t *Target) Report {
	var rep Report
	if a.restore {
		a.applyRestore(t)
	}
	if a.state != Running || t == nil {
		return rep
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if a.needBaseline {
		a.captureBaseline(t)
		a.needBaseline = false
	}

	for _, m := range a.ordered() {
		if !m.begun {
			m.beginPass(t, a.direction)
		}
	}
	for _, m := range a.ordered() {
		n, consumed := m.advance(elapsed, t, a.direction)
		rep.Steps += n
		if consumed > rep.Consumed {
			rep.Consumed = consumed
		}
	}

	if !a.passDone() {
		return rep
	}
	rep.Passes++
	finished := a.mode == Once || a.stopAtEnd
	wrap := !finished && a.mode == Looping
	for _, m := range a.ordered() {
		m.endPass(t, a.direction, finished, wrap)
	}
	switch {
	case finished:
		a.state = Finished
		a.stopAtEnd = false
		rep.Finished = true
	case a.mode == PingPong:
		if a.direction == Forward {
			a.direction = Backward
		} else {
			a.direction = Forward
		}
		a.resetPass()
	default:
		a.resetPass()
	}
	return rep
}

func (a *Animation) passDone() bool {
	for _, m := range a.modifiers {
		if !m.done {
			return false
		}
	}
	return true
}

func (a *Animation) resetPass() {
	for _, m := range a.modifiers {
		m.reset()
	}
}

// ordered returns the modifiers in application order for the current
// direction.
func (a *Animation) ordered() []*Modifier {
	if a.direction == Forward {
		return a.modifiers
	}
	out := make([]*Modifier, len(a.modifiers))
	for i, m := range a.modifiers {
		out[len(a.modifiers)-1-i] = m
	}
	return out
}

func (a *Animation) touches(kind ModifierKind) bool {
	for _, m := range a.modifiers {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

func (a *Animation) captureBaseline(t *Target) {
	a.base = baseline{}
	if t.Transform != nil && a.touches(TransformDeltaKind) {
		v := *t.Transform
		a.base.transform = &v
	}
	if t.Sprite != nil && a.touches(SpriteSequenceKind) {
		v := t.Sprite.Frame
		a.base.frame = &v
	}
	if t.Color != nil && a.touches(ColorDeltaKind) {
		v := *t.Color
		a.base.color = &v
	}
	if t.Visibility != nil && a.touches(BlinkKind) {
		v := *t.Visibility
		a.base.visibility = &v
	}
	if t.Text != nil && a.touches(TextKind) {
		v := t.Text.Content
		a.base.text = &v
	}
}

func (a *Animation) applyRestore(t *Target) {
	a.restore = false
	if t == nil {
		return
	}
	if a.base.transform != nil && t.Transform != nil {
		*t.Transform = *a.base.transform
	}
	if a.base.frame != nil && t.Sprite != nil {
		t.Sprite.Frame = *a.base.frame
	}
	if a.base.color != nil && t.Color != nil {
		*t.Color = *a.base.color
	}
	if a.base.visibility != nil && t.Visibility != nil {
		*t.Visibility = *a.base.visibility
	}
	if a.base.text != nil && t.Text != nil {
		t.Text.Content = *a.base.text
	}
}
