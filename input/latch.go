package input

import "sync/atomic"

// Latch hands input from the presentation goroutine to the simulation.
// Store may run many times between two Samples; edge-triggered fields are
// accumulated so a press is never lost, and Sample clears them.
type Latch struct {
	cur atomic.Pointer[State]
}

func (l *Latch) Store(s State) {
	for {
		old := l.cur.Load()
		next := s
		if old != nil {
			next.Pressed |= old.Pressed
			next.Click = next.Click || old.Click
		}
		if l.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (l *Latch) Sample() State {
	for {
		old := l.cur.Load()
		if old == nil {
			return State{}
		}
		cleared := *old
		cleared.Pressed = 0
		cleared.Click = false
		if l.cur.CompareAndSwap(old, &cleared) {
			return *old
		}
	}
}
