// Package scripting runs game layers written in tengo. A script defines
// on_start, update, late_update and on_stop; each receives the engine
// bindings and a state map that survives between calls and reloads.
package scripting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/stagehand/engine"
	"github.com/milk9111/stagehand/prefabs"
	"go.uber.org/zap"
)

var ErrScript = errors.New("scripting: script failed")

const lifecycleDispatchScript = `
if __phase == "start" {
	__result = on_start(__engine, __state)
} else if __phase == "update" {
	__result = update(__engine, __state)
} else if __phase == "late_update" {
	__result = late_update(__engine, __state)
} else if __phase == "stop" {
	__result = on_stop(__engine, __state)
}
`

// Layer is an engine.Layer whose callbacks are tengo functions.
type Layer struct {
	path     string
	self     string
	compiled *tengo.Compiled
	state    *tengo.Map
}

// Load compiles the named script from the prefab scripts.
func Load(path string) (*Layer, error) {
	src, err := prefabs.LoadScript(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: load %q: %w", path, err)
	}
	return New(path, src)
}

// New compiles src. path is only used for reporting and reloads.
func New(path string, src []byte) (*Layer, error) {
	compiled, err := compile(src)
	if err != nil {
		return nil, fmt.Errorf("scripting: compile %q: %w", path, err)
	}
	return &Layer{
		path:     path,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Bind makes the script act on the entity with the given name; scripts see
// it as e.self.
func (l *Layer) Bind(name string) *Layer {
	l.self = name
	return l
}

func (l *Layer) Path() string { return l.path }
func (l *Layer) Self() string { return l.self }

// State returns the script's state map for inspection.
func (l *Layer) State() map[string]any {
	return objectToAny(l.state).(map[string]any)
}

// Reload swaps in new source and keeps the state map. A script that fails
// to compile leaves the running version in place.
func (l *Layer) Reload(src []byte) error {
	compiled, err := compile(src)
	if err != nil {
		return fmt.Errorf("scripting: compile %q: %w", l.path, err)
	}
	l.compiled = compiled
	return nil
}

func compile(src []byte) (*tengo.Compiled, error) {
	full := string(src) + "\n" + lifecycleDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__result", nil)

	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	return script.Compile()
}

func (l *Layer) OnStart(ctx *engine.Context) error {
	return l.run(ctx, "start")
}

func (l *Layer) Update(ctx *engine.Context) error {
	return l.run(ctx, "update")
}

func (l *Layer) LateUpdate(ctx *engine.Context) error {
	return l.run(ctx, "late_update")
}

func (l *Layer) OnStop(ctx *engine.Context) {
	if err := l.run(ctx, "stop"); err != nil {
		ctx.Log.Warn("script stop failed", zap.String("script", l.path), zap.Error(err))
	}
}

func (l *Layer) run(ctx *engine.Context, phase string) error {
	if err := l.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := l.compiled.Set("__engine", buildEngine(ctx, l)); err != nil {
		return err
	}
	if err := l.compiled.Set("__state", l.state); err != nil {
		return err
	}
	if err := l.compiled.Set("__result", nil); err != nil {
		return err
	}
	if err := l.compiled.Run(); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrScript, l.path, phase, err)
	}
	if res := l.compiled.Get("__result"); res != nil {
		if e, ok := res.Object().(*tengo.Error); ok {
			return fmt.Errorf("%w: %s %s: %s", ErrScript, l.path, phase, strings.Trim(e.Value.String(), "\""))
		}
	}
	return nil
}

var _ engine.Layer = (*Layer)(nil)
