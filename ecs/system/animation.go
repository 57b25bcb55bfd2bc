package system

import (
	"fmt"
	"time"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"go.uber.org/zap"
)

// AnimationSystem advances every running animation by the tick delta and
// writes the results into the entity's components. It never creates or
// destroys entities.
type AnimationSystem struct {
	log *zap.Logger
}

func NewAnimationSystem(log *zap.Logger) *AnimationSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnimationSystem{log: log}
}

func (s *AnimationSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	var dt time.Duration
	if t, ok := ecs.Resource[clock.Time](w); ok {
		dt = t.Delta
	}

	ecs.ForEach(w, animation.RegistryComponent.Kind(), func(e ecs.Entity, reg *animation.Registry) {
		target := animationTarget(w, e)
		if target.Empty() {
			return
		}
		if err := s.advance(w, e, reg, target, dt); err != nil {
			s.log.Error("animation update failed", zap.Uint64("entity", uint64(e)), zap.Error(err))
		}
	})
}

// advance runs one entity's registry. A panic is turned into an error so
// one broken entity does not take the frame down.
func (s *AnimationSystem) advance(w *ecs.World, e ecs.Entity, reg *animation.Registry, target *animation.Target, dt time.Duration) (err error) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("animation %q: panic: %v", current, r)
		}
	}()

	reg.Each(func(name string, a *animation.Animation) {
		if !a.NeedsAdvance() {
			return
		}
		current = name
		rep := a.Advance(dt, target)
		if rep.Finished {
			s.log.Debug("animation finished", zap.Uint64("entity", uint64(e)), zap.String("animation", name))
			w.Events().Push(ecs.Event{
				Type: ecs.EventAnimationFinished,
				Data: ecs.AnimationEvent{Entity: e, Name: name},
			})
		}
	})
	return nil
}

func animationTarget(w *ecs.World, e ecs.Entity) *animation.Target {
	t := &animation.Target{}
	t.Transform, _ = ecs.Get(w, e, component.TransformComponent.Kind())
	t.Sprite, _ = ecs.Get(w, e, component.SpriteComponent.Kind())
	t.Color, _ = ecs.Get(w, e, component.ColorComponent.Kind())
	t.Visibility, _ = ecs.Get(w, e, component.VisibilityComponent.Kind())
	t.Text, _ = ecs.Get(w, e, component.TextComponent.Kind())
	return t
}
