// Package engine runs the simulation: a stack of game layers over a scene,
// the ECS systems, and the per-tick pipeline that ends in a render snapshot.
package engine

import (
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
	"go.uber.org/zap"
)

// Context is handed to every layer and scene callback. It is owned by the
// simulation goroutine and valid only for the duration of the call.
type Context struct {
	World  *ecs.World
	Input  input.State
	Time   clock.Time
	Timers *clock.Timers
	Layers *LayerController
	Scenes *SceneController
	Assets asset.Loader
	Log    *zap.Logger

	// Events are the presentation events received since the last tick.
	Events []render.Event

	quit bool
}

// Quit asks the runner to stop after the current tick.
func (c *Context) Quit() {
	c.quit = true
}

func (c *Context) Quitting() bool {
	return c.quit
}

// Command reports whether the presentation side sent cmd this tick.
func (c *Context) Command(cmd string) bool {
	for _, ev := range c.Events {
		if ev.Kind == render.EventCommand && ev.Command == cmd {
			return true
		}
	}
	return false
}
