package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionNames(t *testing.T) {
	for a := ActionLeft; a < actionCount; a++ {
		got, ok := ParseAction(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, got)
	}
	got, ok := ParseAction("PAUSE")
	assert.True(t, ok)
	assert.Equal(t, ActionPause, got)

	_, ok = ParseAction("fly")
	assert.False(t, ok)
	assert.Equal(t, "unknown", actionCount.String())
}

func TestStateAxis(t *testing.T) {
	cases := []struct {
		name  string
		state State
		want  float64
	}{
		{"idle", State{}, 0},
		{"left", Press(ActionLeft), -1},
		{"right", Press(ActionRight), 1},
		{"both_cancel", Press(ActionLeft, ActionRight), 0},
		{"analog_wins", State{Held: Actions(0).With(ActionLeft), MoveX: 0.5}, 0.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.state.Axis())
		})
	}
}

func TestStaticReplaysThenGoesQuiet(t *testing.T) {
	s := NewStatic(Press(ActionJump), State{CursorX: 3})
	assert.True(t, s.Sample().JustPressed(ActionJump))
	assert.Equal(t, 3, s.Sample().CursorX)
	assert.Equal(t, State{}, s.Sample())
}

func TestLatchKeepsEdgesUntilSampled(t *testing.T) {
	var l Latch
	assert.Equal(t, State{}, l.Sample())

	l.Store(Press(ActionJump))
	l.Store(State{Held: Actions(0).With(ActionLeft), CursorX: 7})

	got := l.Sample()
	assert.True(t, got.JustPressed(ActionJump), "press from an earlier frame survives")
	assert.False(t, got.Down(ActionJump))
	assert.True(t, got.Down(ActionLeft))
	assert.Equal(t, 7, got.CursorX)

	again := l.Sample()
	assert.False(t, again.JustPressed(ActionJump))
	assert.True(t, again.Down(ActionLeft), "held state persists across samples")
}

func TestLatchConcurrentStores(t *testing.T) {
	var l Latch
	var wg sync.WaitGroup
	for a := ActionLeft; a < actionCount; a++ {
		wg.Add(1)
		go func(a Action) {
			defer wg.Done()
			l.Store(Press(a))
		}(a)
	}
	wg.Wait()

	got := l.Sample()
	for a := ActionLeft; a < actionCount; a++ {
		assert.True(t, got.JustPressed(a), a.String())
	}
}
