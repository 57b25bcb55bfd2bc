package engine

import (
	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
)

// PauseLayer is a Strong layer that freezes the scene: it pauses every
// running animation, shows the pause overlay, and pops itself on pause,
// confirm, or a "resume" command.
type PauseLayer struct {
	Title string

	paused []*animation.Animation
}

func NewPauseLayer(title string) *PauseLayer {
	if title == "" {
		title = "PAUSED"
	}
	return &PauseLayer{Title: title}
}

func (p *PauseLayer) OnStart(ctx *Context) error {
	p.paused = p.paused[:0]
	for _, e := range ctx.World.Query(animation.RegistryComponent.Kind()) {
		reg, _ := ecs.Get(ctx.World, e, animation.RegistryComponent.Kind())
		reg.Each(func(_ string, a *animation.Animation) {
			if a.Pause() {
				p.paused = append(p.paused, a)
			}
		})
	}
	setOverlay(ctx, render.Overlay{Paused: true, Title: p.Title})
	return nil
}

func (p *PauseLayer) Update(ctx *Context) error {
	switch {
	case ctx.Command(render.CommandQuit), ctx.Input.JustPressed(input.ActionQuit):
		ctx.Quit()
	case ctx.Command(render.CommandResume),
		ctx.Input.JustPressed(input.ActionPause),
		ctx.Input.JustPressed(input.ActionConfirm):
		ctx.Layers.Pop()
	}
	return nil
}

func (p *PauseLayer) LateUpdate(*Context) error { return nil }

func (p *PauseLayer) OnStop(ctx *Context) {
	for _, a := range p.paused {
		a.Resume()
	}
	p.paused = p.paused[:0]
	setOverlay(ctx, render.Overlay{})
}

func setOverlay(ctx *Context, o render.Overlay) {
	ecs.SetResource(ctx.World, &o)
}
