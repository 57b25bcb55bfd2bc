package render

import "sync/atomic"

type EventKind int

const (
	EventResize EventKind = iota
	EventRedraw
	// EventCommand carries a UI command such as "resume" or "quit".
	EventCommand
)

func (k EventKind) String() string {
	switch k {
	case EventResize:
		return "resize"
	case EventRedraw:
		return "redraw"
	case EventCommand:
		return "command"
	}
	return "unknown"
}

const (
	CommandResume = "resume"
	CommandQuit   = "quit"
)

// Event travels from the presentation side back to the simulation.
type Event struct {
	Kind    EventKind
	Width   int
	Height  int
	Command string
}

// Events is a bounded presentation-to-simulation queue. Send never blocks;
// when the queue is full the event is dropped and counted.
type Events struct {
	ch      chan Event
	dropped atomic.Uint64
}

const DefaultEventCapacity = 64

func NewEvents(capacity int) *Events {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &Events{ch: make(chan Event, capacity)}
}

func (e *Events) Send(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	default:
		e.dropped.Add(1)
		return false
	}
}

// Drain returns every queued event without blocking.
func (e *Events) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-e.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (e *Events) Dropped() uint64 { return e.dropped.Load() }
