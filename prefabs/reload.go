package prefabs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/engine"
	"go.uber.org/zap"
)

// ReloadLayer is a Weak layer that applies edited prefab animations to the
// entities built from them. Running animations are restarted in the same
// mode with the new definition.
type ReloadLayer struct {
	engine.BaseLayer

	changes <-chan Change
	errs    <-chan error
	read    func(string) ([]byte, error)

	// OnScript is called with the path of every changed script file.
	OnScript func(path string)
}

func NewReloadLayer(w *Watcher) *ReloadLayer {
	return &ReloadLayer{changes: w.Changes, errs: w.Errors, read: os.ReadFile}
}

// Update drains pending file changes without blocking.
func (l *ReloadLayer) Update(ctx *engine.Context) error {
	for {
		select {
		case c, ok := <-l.changes:
			if !ok {
				l.changes = nil
				continue
			}
			l.handle(ctx, c)
		case err, ok := <-l.errs:
			if !ok {
				l.errs = nil
				continue
			}
			ctx.Log.Warn("prefab watcher error", zap.Error(err))
		default:
			return nil
		}
	}
}

func (l *ReloadLayer) handle(ctx *engine.Context, c Change) {
	if c.Kind == ScriptChange {
		if l.OnScript != nil {
			l.OnScript(c.Path)
		}
		return
	}
	n, err := l.Apply(ctx.World, c.Path)
	if err != nil {
		ctx.Log.Warn("prefab reload failed", zap.String("file", c.Name()), zap.Error(err))
		return
	}
	ctx.Log.Info("prefab reloaded", zap.String("file", c.Name()), zap.Int("entities", n))
}

// Apply rebuilds the animations in the prefab at path and swaps them into
// every entity built from a prefab with the same file name. It returns the
// number of entities updated. A bad file leaves every entity untouched.
func (l *ReloadLayer) Apply(w *ecs.World, path string) (int, error) {
	data, err := l.read(path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	spec, err := DecodeSpec[EntitySpec](data)
	if err != nil {
		return 0, fmt.Errorf("unmarshal: %w", err)
	}
	raw, ok := spec.Components["animations"]
	if !ok {
		return 0, nil
	}
	set, err := decodeAnimationSet(raw)
	if err != nil {
		return 0, err
	}
	// Validate once up front; each entity then gets its own copy.
	if _, err := BuildRegistry(set); err != nil {
		return 0, err
	}

	base := filepath.Base(path)
	updated := 0
	for _, e := range w.Query(SourceComponent.Kind(), animation.RegistryComponent.Kind()) {
		src, _ := ecs.Get(w, e, SourceComponent.Kind())
		if filepath.Base(filepath.FromSlash(src.Path)) != base {
			continue
		}
		reg, _ := ecs.Get(w, e, animation.RegistryComponent.Kind())
		fresh, err := BuildRegistry(set)
		if err != nil {
			return updated, err
		}
		swapAnimations(reg, fresh)
		updated++
	}
	return updated, nil
}

func swapAnimations(dst, src *animation.Registry) {
	src.Each(func(name string, a *animation.Animation) {
		if old, err := dst.Get(name); err == nil && old.Running() {
			old.Stop(false)
			a.Start(old.Mode())
		}
		_ = dst.Replace(name, a)
	})
}
