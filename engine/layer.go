package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Kind decides whether a layer lets the layers beneath it run.
type Kind int

const (
	// Weak layers fall through to the next layer.
	Weak Kind = iota
	// Strong layers are the last ones dispatched in a tick.
	Strong
)

func (k Kind) String() string {
	if k == Strong {
		return "strong"
	}
	return "weak"
}

// Layer is one line in the layer stack. OnStart runs once before the first
// Update; OnStop runs once when the layer is removed or the engine shuts
// down.
type Layer interface {
	OnStart(ctx *Context) error
	Update(ctx *Context) error
	LateUpdate(ctx *Context) error
	OnStop(ctx *Context)
}

// BaseLayer implements every Layer method as a no-op; embed it and
// override what you need.
type BaseLayer struct{}

func (BaseLayer) OnStart(*Context) error    { return nil }
func (BaseLayer) Update(*Context) error     { return nil }
func (BaseLayer) LateUpdate(*Context) error { return nil }
func (BaseLayer) OnStop(*Context)           {}

// LayerFuncs builds a Layer from optional functions.
type LayerFuncs struct {
	Start  func(ctx *Context) error
	Tick   func(ctx *Context) error
	Late   func(ctx *Context) error
	Finish func(ctx *Context)
}

func (f *LayerFuncs) OnStart(ctx *Context) error {
	if f.Start == nil {
		return nil
	}
	return f.Start(ctx)
}

func (f *LayerFuncs) Update(ctx *Context) error {
	if f.Tick == nil {
		return nil
	}
	return f.Tick(ctx)
}

func (f *LayerFuncs) LateUpdate(ctx *Context) error {
	if f.Late == nil {
		return nil
	}
	return f.Late(ctx)
}

func (f *LayerFuncs) OnStop(ctx *Context) {
	if f.Finish != nil {
		f.Finish(ctx)
	}
}

// LayerID identifies a layer in the stack.
type LayerID uint64

// LayerError is returned when a Strong layer fails and halts the frame.
type LayerError struct {
	ID    LayerID
	Phase string
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("engine: strong layer %d %s: %v", e.ID, e.Phase, e.Err)
}

func (e *LayerError) Unwrap() error {
	return e.Err
}

var ErrLayerNotFound = errors.New("engine: layer not found")

type layerState int

const (
	unstarted layerState = iota
	started
	stopped
)

type layerEntry struct {
	id    LayerID
	kind  Kind
	layer Layer
	state layerState
}

type opKind int

const (
	opPush opKind = iota
	opPop
	opRemove
)

type layerOp struct {
	kind  opKind
	entry *layerEntry
	id    LayerID
}

// LayerController queues stack changes requested during a tick. They are
// applied at the end of the frame, in request order.
type LayerController struct {
	stack *LayerStack
	ops   []layerOp
}

// Push puts layer on top of the stack at the end of the frame.
func (c *LayerController) Push(kind Kind, layer Layer) LayerID {
	e := c.stack.newEntry(kind, layer)
	c.ops = append(c.ops, layerOp{kind: opPush, entry: e})
	return e.id
}

// Pop removes the top layer at the end of the frame.
func (c *LayerController) Pop() {
	c.ops = append(c.ops, layerOp{kind: opPop})
}

// Remove removes the layer with id at the end of the frame.
func (c *LayerController) Remove(id LayerID) {
	c.ops = append(c.ops, layerOp{kind: opRemove, id: id})
}

// Pending is the number of queued changes.
func (c *LayerController) Pending() int {
	return len(c.ops)
}

// LayerStack dispatches layers from the top (first) to the bottom (last),
// stopping after the first Strong layer.
type LayerStack struct {
	entries  []*layerEntry
	eligible []*layerEntry
	blocked  bool
	nextID   LayerID
	ctrl     LayerController
	log      *zap.Logger
}

func NewLayerStack(log *zap.Logger) *LayerStack {
	if log == nil {
		log = zap.NewNop()
	}
	s := &LayerStack{log: log}
	s.ctrl.stack = s
	return s
}

func (s *LayerStack) Controller() *LayerController {
	return &s.ctrl
}

func (s *LayerStack) newEntry(kind Kind, layer Layer) *layerEntry {
	s.nextID++
	return &layerEntry{id: s.nextID, kind: kind, layer: layer}
}

// Add registers layer below every existing layer. It takes effect
// immediately and is meant for setup.
func (s *LayerStack) Add(kind Kind, layer Layer) LayerID {
	e := s.newEntry(kind, layer)
	s.entries = append(s.entries, e)
	return e.id
}

func (s *LayerStack) Len() int {
	return len(s.entries)
}

// IDs returns the layer ids from top to bottom.
func (s *LayerStack) IDs() []LayerID {
	ids := make([]LayerID, 0, len(s.entries))
	for _, e := range s.entries {
		ids = append(ids, e.id)
	}
	return ids
}

// Blocked reports whether a Strong layer stopped dispatch in the last
// Update pass.
func (s *LayerStack) Blocked() bool {
	return s.blocked
}

// Update starts and updates the eligible layers. A Strong layer's error is
// returned and halts the pass; a Weak layer's error is logged.
func (s *LayerStack) Update(ctx *Context) error {
	s.eligible = s.eligible[:0]
	s.blocked = false
	for _, e := range s.entries {
		s.eligible = append(s.eligible, e)
		if err := s.updateEntry(ctx, e); err != nil {
			return err
		}
		if e.kind == Strong {
			s.blocked = true
			break
		}
	}
	return nil
}

func (s *LayerStack) updateEntry(ctx *Context, e *layerEntry) error {
	if e.state == unstarted {
		e.state = started
		if err := e.layer.OnStart(ctx); err != nil {
			return s.fail(e, "start", err)
		}
	}
	if err := e.layer.Update(ctx); err != nil {
		return s.fail(e, "update", err)
	}
	return nil
}

// LateUpdate runs on the layers the last Update pass reached, in the same
// order.
func (s *LayerStack) LateUpdate(ctx *Context) error {
	for _, e := range s.eligible {
		if e.state != started {
			continue
		}
		if err := e.layer.LateUpdate(ctx); err != nil {
			if ferr := s.fail(e, "late update", err); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}

func (s *LayerStack) fail(e *layerEntry, phase string, err error) error {
	if e.kind == Strong {
		return &LayerError{ID: e.id, Phase: phase, Err: err}
	}
	s.log.Warn("weak layer failed", zap.Uint64("layer", uint64(e.id)), zap.String("phase", phase), zap.Error(err))
	return nil
}

// EndFrame applies the queued pushes, pops, and removals.
func (s *LayerStack) EndFrame(ctx *Context) {
	ops := s.ctrl.ops
	s.ctrl.ops = nil
	for _, op := range ops {
		switch op.kind {
		case opPush:
			s.entries = append([]*layerEntry{op.entry}, s.entries...)
		case opPop:
			if len(s.entries) == 0 {
				continue
			}
			top := s.entries[0]
			s.entries = s.entries[1:]
			s.stop(ctx, top)
		case opRemove:
			if !s.removeID(ctx, op.id) {
				s.log.Debug("remove of unknown layer", zap.Uint64("layer", uint64(op.id)), zap.Error(ErrLayerNotFound))
			}
		}
	}
}

func (s *LayerStack) removeID(ctx *Context, id LayerID) bool {
	for i, e := range s.entries {
		if e.id != id {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		s.stop(ctx, e)
		return true
	}
	return false
}

func (s *LayerStack) stop(ctx *Context, e *layerEntry) {
	if e.state == started {
		e.layer.OnStop(ctx)
	}
	e.state = stopped
}

// Shutdown stops every layer, top to bottom, and drops queued changes.
func (s *LayerStack) Shutdown(ctx *Context) {
	s.ctrl.ops = nil
	for _, e := range s.entries {
		s.stop(ctx, e)
	}
	s.entries = nil
	s.eligible = nil
}
