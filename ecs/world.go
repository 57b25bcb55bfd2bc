package ecs

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/milk9111/stagehand/ecs/component"
)

// World owns entities, component columns, resources, and the event queue.
// It is not safe for concurrent use; a single simulation goroutine owns it.
type World struct {
	entities  entityStore
	stores    map[component.ComponentID]*SparseSet
	resources map[reflect.Type]any
	events    EventQueue
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores:    make(map[component.ComponentID]*SparseSet),
		resources: make(map[reflect.Type]any),
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes every component of e and invalidates the handle.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e.id())
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity ordered by index.
func (w *World) Entities() []Entity {
	return w.entities.all()
}

// AddComponent attaches value under kind, replacing any previous value.
func (w *World) AddComponent(e Entity, kind component.Kind, value any) error {
	if !kind.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	if !w.entities.isAlive(e) {
		return fmt.Errorf("%w: add %s to %s", component.ErrEntityNotAlive, kind.Name(), e)
	}
	w.store(kind.ID(), true).Set(e.id(), value)
	return nil
}

// RemoveComponent detaches kind from e.
func (w *World) RemoveComponent(e Entity, kind component.Kind) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	return w.store(kind.ID(), false).Remove(e.id())
}

// HasComponent reports whether e carries kind.
func (w *World) HasComponent(e Entity, kind component.Kind) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	return w.store(kind.ID(), false).Has(e.id())
}

// GetComponent returns the raw value stored for kind.
func (w *World) GetComponent(e Entity, kind component.Kind) (any, bool) {
	if !w.entities.isAlive(e) {
		return nil, false
	}
	v := w.store(kind.ID(), false).Get(e.id())
	return v, v != nil
}

// Query returns the live entities that carry every kind, ordered by index.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		s := w.store(k.ID(), false)
		if s.Len() == 0 {
			return nil
		}
		sets = append(sets, s)
	}
	// iterate smallest set
	sort.Slice(sets, func(i, j int) bool { return sets[i].Len() < sets[j].Len() })

	out := make([]Entity, 0, sets[0].Len())
	for _, id := range sets[0].ids() {
		matched := true
		for _, s := range sets[1:] {
			if !s.Has(id) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if e, ok := w.entities.entityFor(id); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out
}

// First returns the lowest-index entity carrying kind.
func (w *World) First(kind component.Kind) (Entity, bool) {
	ents := w.Query(kind)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// EndFrame clears per-frame state.
func (w *World) EndFrame() {
	if w == nil {
		return
	}
	w.events.flush()
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}
