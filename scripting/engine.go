package scripting

import (
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/engine"
	"github.com/milk9111/stagehand/input"
	"go.uber.org/zap"
)

func buildEngine(ctx *engine.Context, l *Layer) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	values["self"] = &tengo.String{Value: l.self}

	values["frame"] = &tengo.UserFunction{Name: "frame", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(ctx.Time.Frame)}, nil
	}}

	values["delta"] = &tengo.UserFunction{Name: "delta", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: ctx.Time.Delta.Seconds()}, nil
	}}

	values["elapsed"] = &tengo.UserFunction{Name: "elapsed", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: ctx.Time.Elapsed.Seconds()}, nil
	}}

	values["down"] = &tengo.UserFunction{Name: "down", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := actionArg(args)
		return boolObject(ok && ctx.Input.Down(a)), nil
	}}

	values["pressed"] = &tengo.UserFunction{Name: "pressed", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := actionArg(args)
		return boolObject(ok && ctx.Input.JustPressed(a)), nil
	}}

	values["command"] = &tengo.UserFunction{Name: "command", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		return boolObject(ctx.Command(objectAsString(args[0]))), nil
	}}

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		reg, ok := registryOf(ctx.World, l.resolve(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		mode := animation.Once
		if len(args) > 2 {
			switch strings.ToLower(objectAsString(args[2])) {
			case "loop", "looping":
				mode = animation.Looping
			case "pingpong", "ping_pong":
				mode = animation.PingPong
			}
		}
		started, err := reg.Start(objectAsString(args[1]), mode)
		if err != nil {
			ctx.Log.Debug("script play failed", zap.String("script", l.path), zap.Error(err))
			return tengo.FalseValue, nil
		}
		return boolObject(started), nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		reg, ok := registryOf(ctx.World, l.resolve(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		reset := len(args) > 2 && !args[2].IsFalsy()
		stopped, err := reg.Stop(objectAsString(args[1]), reset)
		if err != nil {
			return tengo.FalseValue, nil
		}
		return boolObject(stopped), nil
	}}

	values["running"] = &tengo.UserFunction{Name: "running", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		reg, ok := registryOf(ctx.World, l.resolve(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		running, err := reg.Running(objectAsString(args[1]))
		return boolObject(err == nil && running), nil
	}}

	values["set_text"] = &tengo.UserFunction{Name: "set_text", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		e, ok := FindByName(ctx.World, l.resolve(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		text, ok := ecs.Get(ctx.World, e, component.TextComponent.Kind())
		if !ok {
			return tengo.FalseValue, nil
		}
		text.Content = objectAsString(args[1])
		return tengo.TrueValue, nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		x, y := 0.0, 0.0
		if len(args) > 0 {
			if e, ok := FindByName(ctx.World, l.resolve(args[0])); ok {
				if t, ok := ecs.Get(ctx.World, e, component.TransformComponent.Kind()); ok {
					x, y = t.X, t.Y
				}
			}
		}
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: x}, &tengo.Float{Value: y}}}, nil
	}}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.FalseValue, nil
		}
		e, ok := FindByName(ctx.World, l.resolve(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		t, ok := ecs.Get(ctx.World, e, component.TransformComponent.Kind())
		if !ok {
			return tengo.FalseValue, nil
		}
		dx, _ := tengo.ToFloat64(args[1])
		dy, _ := tengo.ToFloat64(args[2])
		t.Translate(dx, dy)
		return tengo.TrueValue, nil
	}}

	values["quit"] = &tengo.UserFunction{Name: "quit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		ctx.Quit()
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		ctx.Log.Info(strings.Join(parts, " "), zap.String("script", l.path))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

// resolve maps an empty entity name to the bound entity.
func (l *Layer) resolve(obj tengo.Object) string {
	name := strings.TrimSpace(objectAsString(obj))
	if name == "" {
		return l.self
	}
	return name
}

// FindByName returns the first live entity carrying the given Name.
func FindByName(w *ecs.World, name string) (ecs.Entity, bool) {
	if w == nil || name == "" {
		return 0, false
	}
	for _, e := range w.Query(component.NameComponent.Kind()) {
		n, ok := ecs.Get(w, e, component.NameComponent.Kind())
		if ok && n.Value == name {
			return e, true
		}
	}
	return 0, false
}

func registryOf(w *ecs.World, name string) (*animation.Registry, bool) {
	e, ok := FindByName(w, name)
	if !ok {
		return nil, false
	}
	return ecs.Get(w, e, animation.RegistryComponent.Kind())
}

func actionArg(args []tengo.Object) (input.Action, bool) {
	if len(args) < 1 {
		return 0, false
	}
	return input.ParseAction(objectAsString(args[0]))
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
