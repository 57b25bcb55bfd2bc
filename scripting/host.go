package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/prefabs"
	"go.uber.org/zap"
)

// Host keeps the script layers it created so edited scripts can be
// reloaded in place.
type Host struct {
	layers   []*Layer
	read     func(path string) ([]byte, error)
	readFile func(path string) ([]byte, error)
	log      *zap.Logger
}

func NewHost(log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{read: prefabs.LoadScript, readFile: os.ReadFile, log: log}
}

// Load compiles the script at path and tracks the layer.
func (h *Host) Load(path string) (*Layer, error) {
	src, err := h.read(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: load %q: %w", path, err)
	}
	l, err := New(path, src)
	if err != nil {
		return nil, err
	}
	h.layers = append(h.layers, l)
	return l, nil
}

// LayersFor builds one bound layer for every named entity in w that
// carries a script component.
func (h *Host) LayersFor(w *ecs.World) ([]*Layer, error) {
	var out []*Layer
	for _, e := range w.Query(prefabs.ScriptComponent.Kind(), component.NameComponent.Kind()) {
		s, _ := ecs.Get(w, e, prefabs.ScriptComponent.Kind())
		n, _ := ecs.Get(w, e, component.NameComponent.Kind())
		l, err := h.Load(s.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, l.Bind(n.Value))
	}
	return out, nil
}

// Reload re-reads the file at path and recompiles every tracked layer whose
// script has the same file name. Failures are logged and the old code keeps running.
func (h *Host) Reload(path string) int {
	base := filepath.Base(path)
	var src []byte
	reloaded := 0
	for _, l := range h.layers {
		if filepath.Base(l.path) != base {
			continue
		}
		if src == nil {
			data, err := h.readFile(path)
			if err != nil {
				h.log.Warn("script reload failed", zap.String("file", path), zap.Error(err))
				return reloaded
			}
			src = data
		}
		if err := l.Reload(src); err != nil {
			h.log.Warn("script reload failed", zap.String("file", path), zap.Error(err))
			continue
		}
		reloaded++
	}
	if reloaded > 0 {
		h.log.Info("script reloaded", zap.String("file", path), zap.Int("layers", reloaded))
	}
	return reloaded
}

// Forget drops l from reload tracking.
func (h *Host) Forget(l *Layer) {
	for i, x := range h.layers {
		if x == l {
			h.layers = append(h.layers[:i], h.layers[i+1:]...)
			return
		}
	}
}
