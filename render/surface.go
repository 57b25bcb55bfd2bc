package render

import (
	"context"
	"errors"
	"sync"
)

// ErrSurfaceClosed is returned by Present once the surface has gone away,
// e.g. the window was closed. It ends the run cleanly.
var ErrSurfaceClosed = errors.New("render: surface closed")

// Surface draws snapshots. Present is called from the presenter goroutine
// only.
type Surface interface {
	Present(s *Snapshot) error
}

// Present feeds snapshots from mb to surface until ctx is cancelled or the
// surface fails.
func Present(ctx context.Context, mb *Mailbox, surface Surface) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-mb.C():
			if err := surface.Present(snap); err != nil {
				return err
			}
		}
	}
}

// Recorder is a headless Surface that keeps what it was given. The limit
// caps memory for long runs; zero keeps everything.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	frames []*Snapshot
	count  int
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Present(s *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	r.frames = append(r.frames, s)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

// Frames returns the retained snapshots, oldest first.
func (r *Recorder) Frames() []*Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Snapshot(nil), r.frames...)
}

func (r *Recorder) Last() (*Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil, false
	}
	return r.frames[len(r.frames)-1], true
}

// Count is the number of snapshots presented, including evicted ones.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
