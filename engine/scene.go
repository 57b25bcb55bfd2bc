package engine

import "fmt"

// Scene is the gameplay underneath the layer stack. It has the same
// lifecycle as a Layer and is dispatched as the stack's implicit bottom
// layer, so a Strong layer suppresses it too.
type Scene = Layer

// SceneController queues a scene switch; the last request in a tick wins.
type SceneController struct {
	next Scene
}

// Switch replaces the current scene at the end of the frame.
func (c *SceneController) Switch(scene Scene) {
	c.next = scene
}

func (c *SceneController) Pending() bool {
	return c.next != nil
}

// SceneMachine owns the current scene.
type SceneMachine struct {
	current Scene
	started bool
	ctrl    SceneController
}

func NewSceneMachine(initial Scene) *SceneMachine {
	return &SceneMachine{current: initial}
}

func (m *SceneMachine) Controller() *SceneController {
	return &m.ctrl
}

func (m *SceneMachine) Current() Scene {
	return m.current
}

// Update starts the scene on its first tick and updates it.
func (m *SceneMachine) Update(ctx *Context) error {
	if m.current == nil {
		return nil
	}
	if !m.started {
		m.started = true
		if err := m.current.OnStart(ctx); err != nil {
			return fmt.Errorf("engine: scene start: %w", err)
		}
	}
	if err := m.current.Update(ctx); err != nil {
		return fmt.Errorf("engine: scene update: %w", err)
	}
	return nil
}

func (m *SceneMachine) LateUpdate(ctx *Context) error {
	if m.current == nil || !m.started {
		return nil
	}
	if err := m.current.LateUpdate(ctx); err != nil {
		return fmt.Errorf("engine: scene late update: %w", err)
	}
	return nil
}

// EndFrame performs a queued switch: the old scene stops and the new one
// starts right away, so a failed start aborts the load in the same frame.
func (m *SceneMachine) EndFrame(ctx *Context) error {
	next := m.ctrl.next
	if next == nil {
		return nil
	}
	m.ctrl.next = nil
	m.Shutdown(ctx)
	m.current = next
	m.started = true
	if err := next.OnStart(ctx); err != nil {
		return fmt.Errorf("engine: scene start: %w", err)
	}
	return nil
}

// Shutdown stops the current scene if it was started.
func (m *SceneMachine) Shutdown(ctx *Context) {
	if m.current != nil && m.started {
		m.current.OnStop(ctx)
	}
	m.current = nil
	m.started = false
}
