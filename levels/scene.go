package levels

import (
	"fmt"
	"io/fs"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/engine"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/prefabs"
	"github.com/milk9111/stagehand/render"
	"github.com/milk9111/stagehand/scripting"
	"go.uber.org/zap"
)

// Animation names the scene reacts to.
const (
	CollectAnimation = "collected"
	IdleAnimation    = "bob"
)

// Scene loads one level on start and removes everything it spawned on stop.
// It also runs the small amount of game logic the levels share: pausing,
// quitting, collecting pickups and following the player with the camera.
type Scene struct {
	Name    string
	FS      fs.FS
	Builder *prefabs.Builder
	Scripts *scripting.Host

	viewW, viewH float64

	entities []ecs.Entity
	layers   []engine.LayerID
	scripts  []*scripting.Layer
}

func NewScene(name string, b *prefabs.Builder, scripts *scripting.Host) *Scene {
	return &Scene{Name: name, FS: LevelsFS, Builder: b, Scripts: scripts, viewW: 640, viewH: 360}
}

func (s *Scene) Entities() []ecs.Entity { return s.entities }

func (s *Scene) OnStart(ctx *engine.Context) error {
	lvl, err := LoadLevel(s.FS, s.Name)
	if err != nil {
		return fmt.Errorf("level %q: %w", s.Name, err)
	}
	created, err := Spawn(ctx.World, lvl, s.Builder)
	if err != nil {
		return fmt.Errorf("level %q: %w", s.Name, err)
	}
	s.entities = created

	if s.Scripts != nil {
		layers, err := s.Scripts.LayersFor(ctx.World)
		if err != nil {
			return fmt.Errorf("level %q: %w", s.Name, err)
		}
		for _, l := range layers {
			s.scripts = append(s.scripts, l)
			s.layers = append(s.layers, ctx.Layers.Push(engine.Weak, l))
		}
	}

	ctx.Log.Info("level loaded",
		zap.String("level", s.Name),
		zap.Int("entities", len(created)),
		zap.Int("scripts", len(s.layers)),
	)
	return nil
}

func (s *Scene) Update(ctx *engine.Context) error {
	for _, ev := range ctx.Events {
		if ev.Kind == render.EventResize && ev.Width > 0 && ev.Height > 0 {
			s.viewW, s.viewH = float64(ev.Width), float64(ev.Height)
		}
	}
	switch {
	case ctx.Input.JustPressed(input.ActionQuit):
		ctx.Quit()
	case ctx.Input.JustPressed(input.ActionPause):
		ctx.Layers.Push(engine.Strong, engine.NewPauseLayer(""))
	}

	if player, ok := ctx.World.First(component.PlayerTagComponent.Kind()); ok {
		if sp, ok := ecs.Get(ctx.World, player, component.SpriteComponent.Kind()); ok {
			switch {
			case ctx.Input.Axis() < 0:
				sp.FacingLeft = true
			case ctx.Input.Axis() > 0:
				sp.FacingLeft = false
			}
		}
	}
	return nil
}

// LateUpdate runs after the systems, so this frame's collision and
// animation events are visible.
func (s *Scene) LateUpdate(ctx *engine.Context) error {
	w := ctx.World
	for _, ev := range w.Events().Peek() {
		switch ev.Type {
		case ecs.EventCollision:
			c, ok := ev.Data.(ecs.CollisionEvent)
			if !ok {
				continue
			}
			if ecs.Has(w, c.Entity, component.PlayerTagComponent.Kind()) {
				s.collect(ctx, c.Other)
			}
		case ecs.EventAnimationFinished:
			a, ok := ev.Data.(ecs.AnimationEvent)
			if ok && a.Name == CollectAnimation {
				ecs.DestroyEntity(w, a.Entity)
			}
		}
	}
	s.follow(w)
	return nil
}

func (s *Scene) collect(ctx *engine.Context, e ecs.Entity) {
	src, ok := ecs.Get(ctx.World, e, prefabs.SourceComponent.Kind())
	if !ok || src.Path != "coin.yaml" {
		return
	}
	reg, ok := ecs.Get(ctx.World, e, animation.RegistryComponent.Kind())
	if !ok {
		return
	}
	_, _ = reg.Stop(IdleAnimation, false)
	if started, err := reg.StartOnce(CollectAnimation); err != nil {
		ctx.Log.Warn("collect failed", zap.Uint64("entity", uint64(e)), zap.Error(err))
	} else if started {
		ecs.Remove(ctx.World, e, component.ColliderComponent.Kind())
		ctx.Log.Debug("pickup collected", zap.Uint64("entity", uint64(e)))
	}
}

// follow centres the camera on the player.
func (s *Scene) follow(w *ecs.World) {
	cam, ok := w.First(component.CameraComponent.Kind())
	if !ok {
		return
	}
	player, ok := w.First(component.PlayerTagComponent.Kind())
	if !ok {
		return
	}
	pt, ok := ecs.Get(w, player, component.TransformComponent.Kind())
	if !ok {
		return
	}
	ct, ok := ecs.Get(w, cam, component.TransformComponent.Kind())
	if !ok {
		return
	}
	zoom := 1.0
	if c, ok := ecs.Get(w, cam, component.CameraComponent.Kind()); ok && c.Zoom > 0 {
		zoom = c.Zoom
	}
	ct.X = pt.X - s.viewW/(2*zoom)
	ct.Y = pt.Y - s.viewH/(2*zoom)
}

func (s *Scene) OnStop(ctx *engine.Context) {
	for _, id := range s.layers {
		ctx.Layers.Remove(id)
	}
	for _, l := range s.scripts {
		if s.Scripts != nil {
			s.Scripts.Forget(l)
		}
	}
	for _, e := range s.entities {
		ecs.DestroyEntity(ctx.World, e)
	}
	s.entities, s.layers, s.scripts = nil, nil, nil
}

var _ engine.Scene = (*Scene)(nil)
