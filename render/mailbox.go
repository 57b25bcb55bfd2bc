package render

import "sync/atomic"

// Mailbox is a single-slot, most-recent-wins handoff from the simulation to
// the presenter. Publish never blocks; an unread snapshot is replaced and
// counted as dropped.
type Mailbox struct {
	ch        chan *Snapshot
	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan *Snapshot, 1)}
}

func (m *Mailbox) Publish(s *Snapshot) {
	for {
		select {
		case m.ch <- s:
			m.published.Add(1)
			return
		default:
		}
		select {
		case <-m.ch:
			m.dropped.Add(1)
		default:
		}
	}
}

// C delivers published snapshots.
func (m *Mailbox) C() <-chan *Snapshot {
	return m.ch
}

// TryTake returns the pending snapshot, if any, without blocking.
func (m *Mailbox) TryTake() (*Snapshot, bool) {
	select {
	case s := <-m.ch:
		return s, true
	default:
		return nil, false
	}
}

func (m *Mailbox) Published() uint64 { return m.published.Load() }
func (m *Mailbox) Dropped() uint64   { return m.dropped.Load() }
