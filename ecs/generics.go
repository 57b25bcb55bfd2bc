package ecs

import (
	"fmt"
	"reflect"

	"github.com/milk9111/stagehand/ecs/component"
)

func CreateEntity(w *World) Entity {
	return w.CreateEntity()
}

func DestroyEntity(w *World, e Entity) bool {
	return w.DestroyEntity(e)
}

func IsAlive(w *World, e Entity) bool {
	return w.IsAlive(e)
}

func Entities(w *World) []Entity {
	return w.Entities()
}

func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if value == nil {
		return component.ErrNilComponent
	}
	return w.AddComponent(e, kind, value)
}

func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return w.RemoveComponent(e, kind)
}

func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return w.HasComponent(e, kind)
}

func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	value, ok := w.GetComponent(e, kind)
	if !ok {
		return nil, false
	}
	cast, ok := value.(*T)
	return cast, ok
}

// Require is Get for callers that treat a missing component as an error.
func Require[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, error) {
	if !w.IsAlive(e) {
		return nil, fmt.Errorf("%w: %s", component.ErrEntityNotAlive, e)
	}
	v, ok := Get(w, e, kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", component.ErrMissingComponent, e, kind.Name())
	}
	return v, nil
}

// SetResource stores a world-wide singleton keyed by its type.
func SetResource[T any](w *World, value *T) {
	w.resources[reflect.TypeOf((*T)(nil))] = value
}

// Resource returns the world-wide singleton of type T.
func Resource[T any](w *World) (*T, bool) {
	if w == nil {
		return nil, false
	}
	v, ok := w.resources[reflect.TypeOf((*T)(nil))]
	if !ok {
		return nil, false
	}
	cast, ok := v.(*T)
	return cast, ok
}
