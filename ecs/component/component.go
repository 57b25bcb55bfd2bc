package component

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
	ErrMissingComponent     = errors.New("ecs: missing component")
)

// Kind is the untyped view of a ComponentKind used by world storage and in
// diagnostics.
type Kind interface {
	ID() ComponentID
	Valid() bool
	Name() string
}

// ComponentKind identifies one component type in a world. Kinds are
// process-wide; two kinds over the same Go type are distinct.
type ComponentKind[T any] struct {
	id ComponentID
}

// NewComponentKind allocates a kind named after T, e.g. "Transform" or
// "animation.Registry" for types outside this package.
func NewComponentKind[T any]() ComponentKind[T] {
	id := ComponentID(nextComponentID.Add(1))
	kindNames.Store(id, kindName(reflect.TypeFor[T]()))
	return ComponentKind[T]{id: id}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

func (k ComponentKind[T]) Name() string {
	return k.id.Name()
}

func (k ComponentKind[T]) String() string {
	return k.Name()
}

// ComponentHandle is the package-level value each component file exports.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}

type ComponentID uint32

// Name returns the component type name recorded for id, or "invalid".
func (id ComponentID) Name() string {
	if v, ok := kindNames.Load(id); ok {
		return v.(string)
	}
	return "invalid"
}

var (
	nextComponentID atomic.Uint32
	kindNames       sync.Map
)

func kindName(t reflect.Type) string {
	name := t.String()
	if rest, ok := strings.CutPrefix(name, "component."); ok {
		return rest
	}
	return name
}
