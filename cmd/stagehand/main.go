package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/assets"
	"github.com/milk9111/stagehand/config"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/system"
	"github.com/milk9111/stagehand/engine"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/levels"
	"github.com/milk9111/stagehand/prefabs"
	"github.com/milk9111/stagehand/render"
	"github.com/milk9111/stagehand/render/ebitensurface"
	"github.com/milk9111/stagehand/render/termsurface"
	"github.com/milk9111/stagehand/scripting"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	levelName := flag.String("level", "demo.json", "level file in levels/")
	term := flag.Bool("term", false, "draw in the terminal instead of a window")
	headless := flag.Int("headless", 0, "run this many frames without a window and exit")
	watch := flag.Bool("watch", false, "hot reload prefabs and scripts from disk")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *watch {
		cfg.Assets.Watch = true
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *levelName, *term, *headless); err != nil {
		logger.Error("stagehand stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, levelName string, term bool, headless int) error {
	prefabs.DiskDir = cfg.Assets.Prefabs

	lib := assets.NewLibrary()
	if isDir(cfg.Assets.Dir) {
		lib = asset.NewLibrary(os.DirFS(cfg.Assets.Dir))
	}
	latch := &input.Latch{}
	events := render.NewEvents(0)
	scripts := scripting.NewHost(logger)
	scene := levels.NewScene(filepath.Base(levelName), prefabs.NewBuilder(lib), scripts)
	if isDir(cfg.Assets.Levels) {
		scene.FS = os.DirFS(cfg.Assets.Levels)
	}

	sched := engine.NewScheduler(ecs.NewWorld(), engine.Options{
		Input:   latch,
		Events:  events,
		Assets:  lib,
		Log:     logger,
		Scene:   scene,
		Systems: []ecs.System{system.NewAnimationSystem(logger), system.NewCollisionSystem()},
	})

	if cfg.Assets.Watch {
		w, err := prefabs.NewWatcher(cfg.Assets.Prefabs, filepath.Join(cfg.Assets.Prefabs, "scripts"))
		if err != nil {
			return fmt.Errorf("watch prefabs: %w", err)
		}
		defer w.Close()
		reload := prefabs.NewReloadLayer(w)
		reload.OnScript = func(path string) { scripts.Reload(path) }
		sched.Layers().Add(engine.Weak, reload)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case headless > 0:
		return runHeadless(sched, headless, logger)
	case term:
		return runTerminal(ctx, cfg, sched, lib, latch, events)
	default:
		return runWindow(ctx, cfg, sched, lib, latch, events)
	}
}

func runHeadless(sched *engine.Scheduler, frames int, logger *zap.Logger) error {
	defer sched.Shutdown()
	rec := render.NewRecorder(1)
	for i := 0; i < frames && !sched.Quitting(); i++ {
		if err := sched.Tick(); err != nil {
			return err
		}
		if snap, ok := sched.Mailbox().TryTake(); ok {
			_ = rec.Present(snap)
		}
	}
	if last, ok := rec.Last(); ok {
		logger.Info("headless run finished",
			zap.Uint64("frame", last.Frame),
			zap.Duration("elapsed", last.Elapsed),
			zap.Int("entries", len(last.Entries)),
		)
	}
	return nil
}

func runTerminal(ctx context.Context, cfg *config.Config, sched *engine.Scheduler, lib *asset.Library, latch *input.Latch, events *render.Events) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	glyphs := map[asset.Handle]rune{}
	if h, err := lib.Load("hero-Sheet.png"); err == nil {
		glyphs[h] = '@'
	}
	if h, err := lib.Load("tiles.png"); err == nil {
		glyphs[h] = '#'
	}
	surf, err := termsurface.New(screen, latch, events, termsurface.Options{Glyphs: glyphs})
	if err != nil {
		return err
	}
	defer surf.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = surf.PollInput(ctx) }()

	return engine.NewRunner(sched, cfg.FrameLimiter(), surf).Run(ctx)
}

// runWindow keeps ebiten on the main goroutine and runs the simulation
// beside it.
func runWindow(ctx context.Context, cfg *config.Config, sched *engine.Scheduler, lib *asset.Library, latch *input.Latch, events *render.Events) error {
	surf := ebitensurface.New(lib, latch, events, ebitensurface.Options{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Resizable:  cfg.Window.Resizable,
		Background: cfg.BackgroundColor(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		err := engine.NewRunner(sched, cfg.FrameLimiter(), surf).Run(ctx)
		surf.Close()
		done <- err
	}()

	winErr := surf.Run()
	cancel()
	simErr := <-done
	if simErr != nil && !errors.Is(simErr, context.Canceled) {
		return simErr
	}
	return winErr
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
