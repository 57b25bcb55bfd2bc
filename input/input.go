// Package input turns backend key and mouse state into a per-tick snapshot
// the simulation can read without touching the windowing library.
package input

import "strings"

// Action is a logical control. Backends map their keys onto actions.
type Action uint8

const (
	ActionLeft Action = iota
	ActionRight
	ActionUp
	ActionDown
	ActionJump
	ActionConfirm
	ActionPause
	ActionQuit
	actionCount
)

var actionNames = [...]string{"left", "right", "up", "down", "jump", "confirm", "pause", "quit"}

func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction looks an action up by name, case-insensitively.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if strings.EqualFold(n, name) {
			return Action(i), true
		}
	}
	return 0, false
}

// Actions is a set of actions.
type Actions uint32

func (s Actions) Has(a Action) bool {
	return s&(1<<a) != 0
}

func (s Actions) With(a Action) Actions {
	return s | 1<<a
}

// State is one input sample.
type State struct {
	// Held are actions whose key is down.
	Held Actions
	// Pressed are actions whose key went down since the previous sample.
	Pressed Actions

	MoveX float64

	CursorX int
	CursorY int
	Click   bool
}

func (s State) Down(a Action) bool {
	return s.Held.Has(a)
}

func (s State) JustPressed(a Action) bool {
	return s.Pressed.Has(a)
}

// Axis returns the horizontal move input in [-1, 1]. An analog MoveX wins
// over the digital left/right actions.
func (s State) Axis() float64 {
	if s.MoveX != 0 {
		return s.MoveX
	}
	x := 0.0
	if s.Down(ActionLeft) {
		x--
	}
	if s.Down(ActionRight) {
		x++
	}
	return x
}

// Source produces the input state for one tick.
type Source interface {
	Sample() State
}

// Static replays a fixed sequence of states, then reports empty input.
type Static struct {
	states []State
	next   int
}

func NewStatic(states ...State) *Static {
	return &Static{states: states}
}

func (s *Static) Sample() State {
	if s.next >= len(s.states) {
		return State{}
	}
	st := s.states[s.next]
	s.next++
	return st
}

// Press is a shorthand for a state where actions were just pressed and are
// held.
func Press(actions ...Action) State {
	var set Actions
	for _, a := range actions {
		set = set.With(a)
	}
	return State{Held: set, Pressed: set}
}
