package levels

import (
	"testing"
	"time"

	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/ecs/system"
	"github.com/milk9111/stagehand/engine"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/prefabs"
	"github.com/milk9111/stagehand/render"
	"github.com/milk9111/stagehand/scripting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const tick = 16 * time.Millisecond

func demoScheduler(t *testing.T, src input.Source) (*engine.Scheduler, *Scene, *observer.ObservedLogs) {
	t.Helper()
	embeddedPrefabs(t)
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	scene := NewScene("demo.json", prefabs.NewBuilder(demoAssets), scripting.NewHost(log))
	sched := engine.NewScheduler(nil, engine.Options{
		Clock:   clock.New(clock.WithFixedStep(tick)),
		Input:   src,
		Log:     log,
		Scene:   scene,
		Systems: []ecs.System{system.NewAnimationSystem(log), system.NewCollisionSystem()},
	})
	return sched, scene, logs
}

func named(t *testing.T, w *ecs.World, name string) ecs.Entity {
	t.Helper()
	e, ok := scripting.FindByName(w, name)
	require.True(t, ok, "no entity named %q", name)
	return e
}

func TestSceneLoadsAndUnloads(t *testing.T) {
	sched, scene, logs := demoScheduler(t, nil)
	w := sched.World()

	require.NoError(t, sched.Tick())
	assert.NotEmpty(t, scene.Entities())
	assert.Equal(t, 1, logs.FilterMessage("level loaded").Len())
	assert.Len(t, sched.Layers().IDs(), 1, "the hud script layer is pushed")

	hero, ok := w.First(component.PlayerTagComponent.Kind())
	require.True(t, ok)
	ht, _ := ecs.Get(w, hero, component.TransformComponent.Kind())
	assert.Equal(t, 32.0, ht.X)
	assert.Equal(t, 152.0, ht.Y)

	cam, ok := w.First(component.CameraComponent.Kind())
	require.True(t, ok)
	ct, _ := ecs.Get(w, cam, component.TransformComponent.Kind())
	assert.Equal(t, ht.X-160, ct.X)
	assert.Equal(t, ht.Y-90, ct.Y)

	require.NoError(t, sched.Tick())
	hud, _ := ecs.Get(w, named(t, w, "hud"), component.TextComponent.Kind())
	assert.Equal(t, "frame 2  x 32  confirms 0", hud.Content)

	snap, ok := sched.Mailbox().TryTake()
	require.True(t, ok)
	assert.NotEmpty(t, snap.Entries)
	assert.Equal(t, 2.0, snap.Camera.Zoom)

	sched.Shutdown()
	assert.Empty(t, ecs.Entities(w))
	assert.Equal(t, 1, logs.FilterMessage("hud stopped").Len())
}

func TestSceneCollectsCoins(t *testing.T) {
	sched, _, _ := demoScheduler(t, nil)
	w := sched.World()
	require.NoError(t, sched.Tick())

	coin := named(t, w, "last_coin")
	hero, _ := w.First(component.PlayerTagComponent.Kind())
	ct, _ := ecs.Get(w, coin, component.TransformComponent.Kind())
	ht, _ := ecs.Get(w, hero, component.TransformComponent.Kind())
	ht.X, ht.Y = ct.X, ct.Y

	require.NoError(t, sched.Tick())
	assert.False(t, ecs.Has(w, coin, component.ColliderComponent.Kind()), "a collected coin stops colliding")

	for i := 0; i < 40 && w.IsAlive(coin); i++ {
		require.NoError(t, sched.Tick())
	}
	assert.False(t, w.IsAlive(coin), "the coin is removed once its collect animation ends")
	assert.Len(t, w.Query(component.ColliderComponent.Kind(), component.SpriteComponent.Kind()), 3, "hero and the two other coins remain")
}

func TestScenePauseAndResume(t *testing.T) {
	src := input.NewStatic(
		input.State{},
		input.Press(input.ActionPause),
		input.State{},
		input.Press(input.ActionPause),
		input.State{},
	)
	sched, _, _ := demoScheduler(t, src)

	require.NoError(t, sched.Tick())
	require.NoError(t, sched.Tick())
	require.NoError(t, sched.Tick())
	snap, ok := sched.Mailbox().TryTake()
	require.True(t, ok)
	assert.True(t, snap.Overlay.Paused)
	assert.True(t, sched.Layers().Blocked())

	require.NoError(t, sched.Tick())
	require.NoError(t, sched.Tick())
	snap, ok = sched.Mailbox().TryTake()
	require.True(t, ok)
	assert.False(t, snap.Overlay.Paused)
	assert.False(t, sched.Layers().Blocked())
}

func TestSceneQuitAndResize(t *testing.T) {
	events := render.NewEvents(4)
	embeddedPrefabs(t)
	scene := NewScene("demo.json", prefabs.NewBuilder(demoAssets), nil)
	sched := engine.NewScheduler(nil, engine.Options{
		Input:  input.NewStatic(input.State{}, input.Press(input.ActionQuit)),
		Events: events,
		Scene:  scene,
	})
	w := sched.World()

	events.Send(render.Event{Kind: render.EventResize, Width: 320, Height: 180})
	require.NoError(t, sched.Tick())
	hero, _ := w.First(component.PlayerTagComponent.Kind())
	ht, _ := ecs.Get(w, hero, component.TransformComponent.Kind())
	cam, _ := w.First(component.CameraComponent.Kind())
	ct, _ := ecs.Get(w, cam, component.TransformComponent.Kind())
	assert.Equal(t, ht.X-80, ct.X)
	assert.Empty(t, sched.Layers().IDs(), "no script host, no script layers")

	assert.False(t, sched.Quitting())
	require.NoError(t, sched.Tick())
	assert.True(t, sched.Quitting())
}

func TestSceneMissingLevel(t *testing.T) {
	embeddedPrefabs(t)
	sched := engine.NewScheduler(nil, engine.Options{Scene: NewScene("nowhere.json", prefabs.NewBuilder(demoAssets), nil)})
	assert.Error(t, sched.Tick())
}
