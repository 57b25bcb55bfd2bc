package engine

import (
	"context"
	"errors"

	"github.com/milk9111/stagehand/render"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner drives a Scheduler on its own goroutine and presents snapshots on
// another.
type Runner struct {
	sched   *Scheduler
	limiter *FrameLimiter
	surface render.Surface
	log     *zap.Logger
}

func NewRunner(sched *Scheduler, limiter *FrameLimiter, surface render.Surface) *Runner {
	if limiter == nil {
		limiter = NewFrameLimiter(StrategySleep, DefaultFPS)
	}
	return &Runner{sched: sched, limiter: limiter, surface: surface, log: sched.log}
}

// Run ticks until ctx is cancelled, a layer calls Quit, the surface closes,
// or a tick fails. Layers and the scene are shut down before it returns.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	simDone := make(chan struct{})

	g.Go(func() error {
		defer close(simDone)
		defer r.sched.Shutdown()
		return r.simulate(ctx)
	})

	if r.surface != nil {
		g.Go(func() error {
			pctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				<-simDone
				cancel()
			}()
			err := render.Present(pctx, r.sched.Mailbox(), r.surface)
			if errors.Is(err, render.ErrSurfaceClosed) {
				return errStop
			}
			return err
		})
	}

	err := g.Wait()
	if errors.Is(err, errStop) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// errStop ends the group without reporting a failure.
var errStop = errors.New("engine: stop")

func (r *Runner) simulate(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.limiter.StartFrame()
		if err := r.sched.Tick(); err != nil {
			r.log.Error("tick failed", zap.Error(err))
			return err
		}
		if r.sched.Quitting() {
			r.log.Info("quit requested", zap.Uint64("frame", r.sched.Context().Time.Frame))
			return errStop
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}
