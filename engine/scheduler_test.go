package engine

import (
	"testing"
	"time"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/ecs/system"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 16 * time.Millisecond

func spawnHero(t *testing.T, w *ecs.World) (ecs.Entity, *animation.Registry) {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), component.NewTransform(0, 0)))
	require.NoError(t, ecs.Add(w, e, component.SpriteComponent.Kind(), &component.Sprite{Frame: 78}))
	reg, err := animation.Single("move_right", animation.MustNew(30*tick,
		animation.Translate(30, 64, 0),
		animation.SpriteSequence([]int{78, 79, 80, 79}, 78),
	))
	require.NoError(t, err)
	require.NoError(t, ecs.Add(w, e, animation.RegistryComponent.Kind(), reg))
	return e, reg
}

func TestTickOrder(t *testing.T) {
	tr := &trace{}
	sys := ecs.SystemFunc(func(*ecs.World) { tr.calls = append(tr.calls, "system") })
	sched := NewScheduler(nil, Options{Scene: tr.layer("scene"), Systems: []ecs.System{sys}})
	sched.Layers().Add(Weak, tr.layer("layer"))

	require.NoError(t, sched.Tick())
	assert.Equal(t, []string{
		"layer.start", "layer.update",
		"scene.start", "scene.update",
		"system",
		"layer.late", "scene.late",
	}, tr.calls)
}

func TestSystemsRunUnderStrongLayer(t *testing.T) {
	ran := 0
	sched := NewScheduler(nil, Options{})
	sched.AddSystem(ecs.SystemFunc(func(*ecs.World) { ran++ }))
	sched.Layers().Add(Strong, &BaseLayer{})

	require.NoError(t, sched.Tick())
	assert.Equal(t, 1, ran)
}

func TestTickPublishesSnapshot(t *testing.T) {
	w := ecs.NewWorld()
	spawnHero(t, w)
	sched := NewScheduler(w, Options{Clock: clock.New(clock.WithFixedStep(tick))})

	require.NoError(t, sched.Tick())
	require.NoError(t, sched.Tick())

	snap, ok := sched.Mailbox().TryTake()
	require.True(t, ok)
	assert.EqualValues(t, 2, snap.Frame)
	assert.Equal(t, 2*tick, snap.Elapsed)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, 78, snap.Entries[0].Frame)
	assert.EqualValues(t, 2, sched.Mailbox().Published())

	tm, ok := ecs.Resource[clock.Time](w)
	require.True(t, ok)
	assert.Equal(t, tick, tm.Delta)
	assert.EqualValues(t, 2, sched.Context().Time.Frame)
}

func TestMoveRightThroughScheduler(t *testing.T) {
	w := ecs.NewWorld()
	hero, reg := spawnHero(t, w)
	sched := NewScheduler(w, Options{
		Clock:   clock.New(clock.WithFixedStep(tick)),
		Systems: []ecs.System{system.NewAnimationSystem(nil)},
	})

	var finished []ecs.AnimationEvent
	sched.Layers().Add(Weak, &LayerFuncs{
		Start: func(*Context) error {
			_, err := reg.StartOnce("move_right")
			return err
		},
		Late: func(ctx *Context) error {
			for _, ev := range ctx.World.Events().Peek() {
				if ev.Type == ecs.EventAnimationFinished {
					finished = append(finished, ev.Data.(ecs.AnimationEvent))
				}
			}
			return nil
		},
	})

	for i := 0; i < 15; i++ {
		require.NoError(t, sched.Tick())
	}
	snap, ok := sched.Mailbox().TryTake()
	require.True(t, ok)
	require.Len(t, snap.Entries, 1)
	assert.InDelta(t, 32.0, snap.Entries[0].X, 1e-6)
	assert.Empty(t, finished)

	for i := 0; i < 15; i++ {
		require.NoError(t, sched.Tick())
	}
	snap, ok = sched.Mailbox().TryTake()
	require.True(t, ok)
	assert.Equal(t, 64.0, snap.Entries[0].X)
	assert.Equal(t, 0.0, snap.Entries[0].Y)
	assert.Equal(t, 78, snap.Entries[0].Frame)

	require.Len(t, finished, 1)
	assert.Equal(t, ecs.AnimationEvent{Entity: hero, Name: "move_right"}, finished[0])
	running, err := reg.Running("move_right")
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, sched.Tick())
	assert.Len(t, finished, 1, "finished events are flushed at end of frame")
}

func TestTickSamplesInputAndEvents(t *testing.T) {
	events := render.NewEvents(4)
	src := input.NewStatic(input.Press(input.ActionConfirm))
	sched := NewScheduler(nil, Options{Input: src, Events: events})

	var seen []render.Event
	var confirmed bool
	sched.Layers().Add(Weak, &LayerFuncs{Tick: func(ctx *Context) error {
		seen = append(seen, ctx.Events...)
		st, ok := ecs.Resource[input.State](ctx.World)
		confirmed = ok && st.JustPressed(input.ActionConfirm) && ctx.Input.JustPressed(input.ActionConfirm)
		return nil
	}})

	require.True(t, events.Send(render.Event{Kind: render.EventResize, Width: 320, Height: 180}))
	require.NoError(t, sched.Tick())
	require.Len(t, seen, 1)
	assert.Equal(t, 320, seen[0].Width)
	assert.True(t, confirmed)

	seen = nil
	require.NoError(t, sched.Tick())
	assert.Empty(t, seen, "events are delivered once")
	assert.False(t, confirmed)
}

func TestQuitCommandStopsScheduler(t *testing.T) {
	events := render.NewEvents(4)
	sched := NewScheduler(nil, Options{Events: events})

	require.NoError(t, sched.Tick())
	assert.False(t, sched.Quitting())

	events.Send(render.Event{Kind: render.EventCommand, Command: render.CommandQuit})
	require.NoError(t, sched.Tick())
	assert.True(t, sched.Quitting())
}

func TestTimersAdvanceWithClock(t *testing.T) {
	sched := NewScheduler(nil, Options{Clock: clock.New(clock.WithFixedStep(tick))})
	timers, ok := ecs.Resource[clock.Timers](sched.World())
	require.True(t, ok)
	assert.Same(t, sched.Context().Timers, timers)

	timer, err := timers.Add("spawn", clock.Cyclic, 2*tick)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, sched.Tick())
	}
	assert.Equal(t, 2, timer.Cycles())
	assert.Equal(t, tick, timer.Elapsed())
}
