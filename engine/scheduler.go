package engine

import (
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
	"go.uber.org/zap"
)

type Options struct {
	Clock   *clock.Clock
	Input   input.Source
	Mailbox *render.Mailbox
	Events  *render.Events
	Assets  asset.Loader
	Log     *zap.Logger
	Scene   Scene
	Systems []ecs.System
}

// Scheduler runs one tick of the simulation at a time. It is not safe for
// concurrent use.
type Scheduler struct {
	world   *ecs.World
	clock   *clock.Clock
	input   input.Source
	mailbox *render.Mailbox
	events  *render.Events
	log     *zap.Logger

	layers  *LayerStack
	scenes  *SceneMachine
	systems *ecs.Scheduler
	timers  *clock.Timers
	ctx     Context
}

func NewScheduler(world *ecs.World, opts Options) *Scheduler {
	if world == nil {
		world = ecs.NewWorld()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	src := opts.Input
	if src == nil {
		src = input.NewStatic()
	}
	mb := opts.Mailbox
	if mb == nil {
		mb = render.NewMailbox()
	}

	s := &Scheduler{
		world:   world,
		clock:   clk,
		input:   src,
		mailbox: mb,
		events:  opts.Events,
		log:     log,
		layers:  NewLayerStack(log),
		scenes:  NewSceneMachine(opts.Scene),
		systems: ecs.NewScheduler(opts.Systems...),
		timers:  clock.NewTimers(),
	}
	s.ctx = Context{
		World:  world,
		Timers: s.timers,
		Layers: s.layers.Controller(),
		Scenes: s.scenes.Controller(),
		Assets: opts.Assets,
		Log:    log,
	}
	ecs.SetResource(world, s.timers)
	return s
}

func (s *Scheduler) World() *ecs.World           { return s.world }
func (s *Scheduler) Layers() *LayerStack         { return s.layers }
func (s *Scheduler) Scenes() *SceneMachine       { return s.scenes }
func (s *Scheduler) Mailbox() *render.Mailbox    { return s.mailbox }
func (s *Scheduler) Context() *Context           { return &s.ctx }
func (s *Scheduler) AddSystem(system ecs.System) { s.systems.Add(system) }

// Tick runs one frame: presentation events, clock, input, layer Update,
// systems, layer LateUpdate, snapshot publish, then the deferred layer and
// scene changes. A Strong layer or scene error halts the frame before the
// snapshot is published and is returned as is.
func (s *Scheduler) Tick() error {
	ctx := &s.ctx
	ctx.Events = ctx.Events[:0]
	if s.events != nil {
		ctx.Events = append(ctx.Events, s.events.Drain()...)
	}
	if ctx.Command(render.CommandQuit) {
		ctx.Quit()
	}

	t := s.clock.Tick()
	ctx.Time = t
	ecs.SetResource(s.world, &t)
	s.timers.Advance(t.Delta)

	ctx.Input = s.input.Sample()
	st := ctx.Input
	ecs.SetResource(s.world, &st)

	if err := s.layers.Update(ctx); err != nil {
		return err
	}
	if !s.layers.Blocked() {
		if err := s.scenes.Update(ctx); err != nil {
			return err
		}
	}

	s.systems.Update(s.world)

	if err := s.layers.LateUpdate(ctx); err != nil {
		return err
	}
	if !s.layers.Blocked() {
		if err := s.scenes.LateUpdate(ctx); err != nil {
			return err
		}
	}

	s.mailbox.Publish(render.Extract(s.world, t.Frame, t.Elapsed))

	s.layers.EndFrame(ctx)
	if err := s.scenes.EndFrame(ctx); err != nil {
		return err
	}
	s.world.EndFrame()
	return nil
}

// Quitting reports whether a layer or scene asked to stop.
func (s *Scheduler) Quitting() bool {
	return s.ctx.Quitting()
}

// Shutdown stops every layer and the scene exactly once.
func (s *Scheduler) Shutdown() {
	s.layers.Shutdown(&s.ctx)
	s.scenes.Shutdown(&s.ctx)
}
