package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// CollisionEvent is emitted when two colliders start overlapping.
type CollisionEvent struct {
	Entity Entity
	Other  Entity
}

// AnimationEvent is emitted when a named animation finishes.
type AnimationEvent struct {
	Entity Entity
	Name   string
}

const (
	EventCollision         = "collision"
	EventAnimationFinished = "animation_finished"
)

// EventQueue is a simple FIFO queue flushed at the end of every frame.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Peek returns the queued events without clearing them.
func (q *EventQueue) Peek() []Event {
	if q == nil {
		return nil
	}
	return q.items
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
