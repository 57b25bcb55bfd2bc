package animation

import (
	"fmt"

	"github.com/milk9111/stagehand/ecs/component"
)

// Registry is the named animation set attached to one entity. Names are
// unique; lookups of unknown names return ErrNotFound. It is owned by the
// simulation goroutine.
type Registry struct {
	order  []string
	byName map[string]*Animation
}

var RegistryComponent = component.NewComponent[Registry]()

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Animation)}
}

// Single builds a registry holding one animation.
func Single(name string, a *Animation) (*Registry, error) {
	r := NewRegistry()
	if err := r.Add(name, a); err != nil {
		return nil, err
	}
	return r, nil
}

// Add registers a under name. Re-using a name fails with ErrDuplicateName.
func (r *Registry) Add(name string, a *Animation) error {
	if name == "" {
		return configError("animation name is empty")
	}
	if a == nil {
		return configError("animation %q is nil", name)
	}
	if r.byName == nil {
		r.byName = make(map[string]*Animation)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.order = append(r.order, name)
	r.byName[name] = a
	return nil
}

// Replace swaps the animation stored under name, or adds it. Used by prefab
// hot reload, where overwriting is the point.
func (r *Registry) Replace(name string, a *Animation) error {
	if _, ok := r.byName[name]; !ok {
		return r.Add(name, a)
	}
	if a == nil {
		return configError("animation %q is nil", name)
	}
	r.byName[name] = a
	return nil
}

func (r *Registry) Get(name string) (*Animation, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return a, nil
}

// Start starts name in mode. The bool is false when it was already running.
func (r *Registry) Start(name string, mode Mode) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.Start(mode), nil
}

func (r *Registry) StartOnce(name string) (bool, error) {
	return r.Start(name, Once)
}

func (r *Registry) Loop(name string) (bool, error) {
	return r.Start(name, Looping)
}

func (r *Registry) PingPong(name string) (bool, error) {
	return r.Start(name, PingPong)
}

func (r *Registry) Stop(name string, reset bool) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.Stop(reset), nil
}

// StopAtEnd lets name finish its current pass before stopping.
func (r *Registry) StopAtEnd(name string) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.StopAtEnd(), nil
}

func (r *Registry) StopAll(reset bool) {
	for _, name := range r.order {
		r.byName[name].Stop(reset)
	}
}

func (r *Registry) Pause(name string) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.Pause(), nil
}

func (r *Registry) Resume(name string) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.Resume(), nil
}

// Running reports whether name is currently running.
func (r *Registry) Running(name string) (bool, error) {
	a, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return a.Running(), nil
}

// AnyRunning reports whether at least one animation is running.
func (r *Registry) AnyRunning() bool {
	for _, a := range r.byName {
		if a.Running() {
			return true
		}
	}
	return false
}

// Names returns the animation names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Each visits the animations in registration order.
func (r *Registry) Each(fn func(name string, a *Animation)) {
	for _, name := range r.order {
		fn(name, r.byName[name])
	}
}
