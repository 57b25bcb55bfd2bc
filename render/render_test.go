package render

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addSprite(t *testing.T, w *ecs.World, x float64, layer int, frame int) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), component.NewTransform(x, 0)))
	require.NoError(t, ecs.Add(w, e, component.SpriteComponent.Kind(), &component.Sprite{Asset: asset.Handle(1), Frame: frame}))
	if layer != 0 {
		require.NoError(t, ecs.Add(w, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: layer}))
	}
	return e
}

func TestExtractOrdersAndFilters(t *testing.T) {
	w := ecs.NewWorld()
	top := addSprite(t, w, 1, 5, 10)
	a := addSprite(t, w, 2, 0, 11)
	hidden := addSprite(t, w, 3, 0, 12)
	b := addSprite(t, w, 4, 0, 13)
	require.NoError(t, ecs.Add(w, hidden, component.VisibilityComponent.Kind(), &component.Visibility{Hidden: true}))

	label := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, label, component.TransformComponent.Kind(), component.NewTransform(9, 9)))
	require.NoError(t, ecs.Add(w, label, component.TextComponent.Kind(), &component.Text{Content: "score"}))
	tint := component.NewColor(255, 0, 0, 0.5)
	require.NoError(t, ecs.Add(w, label, component.ColorComponent.Kind(), &tint))

	bare := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, bare, component.TransformComponent.Kind(), component.NewTransform(0, 0)))

	snap := Extract(w, 7, time.Second)
	assert.Equal(t, uint64(7), snap.Frame)
	assert.Equal(t, time.Second, snap.Elapsed)
	assert.Equal(t, Camera{Zoom: 1}, snap.Camera)

	var order []uint64
	for _, e := range snap.Entries {
		order = append(order, e.Entity)
	}
	assert.Equal(t, []uint64{uint64(a), uint64(b), uint64(label), uint64(top)}, order)

	assert.Equal(t, 11, snap.Entries[0].Frame)
	assert.Equal(t, component.White, snap.Entries[0].Tint)
	assert.True(t, snap.Entries[0].HasSprite())
	assert.Equal(t, "score", snap.Entries[2].Text)
	assert.False(t, snap.Entries[2].HasSprite())
	assert.Equal(t, tint, snap.Entries[2].Tint)
}

func TestExtractCameraAndOverlay(t *testing.T) {
	w := ecs.NewWorld()
	cam := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, cam, component.TransformComponent.Kind(), component.NewTransform(100, 50)))
	require.NoError(t, ecs.Add(w, cam, component.CameraComponent.Kind(), &component.Camera{Zoom: 2}))
	require.NoError(t, ecs.Add(w, cam, component.SpriteComponent.Kind(), &component.Sprite{}))
	ecs.SetResource(w, &Overlay{Paused: true, Title: "Paused"})

	snap := Extract(w, 1, 0)
	assert.Equal(t, Camera{X: 100, Y: 50, Zoom: 2}, snap.Camera)
	assert.Empty(t, snap.Entries, "the camera entity is never drawn")
	assert.Equal(t, Overlay{Paused: true, Title: "Paused"}, snap.Overlay)
}

func TestSnapshotIsDetachedFromWorld(t *testing.T) {
	w := ecs.NewWorld()
	e := addSprite(t, w, 1, 0, 3)
	snap := Extract(w, 1, 0)

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	tr.X = 99
	assert.Equal(t, 1.0, snap.Entries[0].X)
}

func TestMailboxMostRecentWins(t *testing.T) {
	mb := NewMailbox()
	_, ok := mb.TryTake()
	assert.False(t, ok)

	for i := uint64(1); i <= 3; i++ {
		mb.Publish(&Snapshot{Frame: i})
	}
	got, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Frame)
	assert.Equal(t, uint64(3), mb.Published())
	assert.Equal(t, uint64(2), mb.Dropped())

	_, ok = mb.TryTake()
	assert.False(t, ok)
}

func TestMailboxPublishNeverBlocks(t *testing.T) {
	mb := NewMailbox()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			mb.Publish(&Snapshot{Frame: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked without a reader")
	}
}

func TestEventsBounded(t *testing.T) {
	ev := NewEvents(2)
	assert.True(t, ev.Send(Event{Kind: EventResize, Width: 640, Height: 480}))
	assert.True(t, ev.Send(Event{Kind: EventCommand, Command: CommandResume}))
	assert.False(t, ev.Send(Event{Kind: EventRedraw}))
	assert.Equal(t, uint64(1), ev.Dropped())

	got := ev.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, EventResize, got[0].Kind)
	assert.Equal(t, CommandResume, got[1].Command)
	assert.Empty(t, ev.Drain())
	assert.Equal(t, "command", EventCommand.String())
}

type failingSurface struct {
	after int
	seen  int
}

func (f *failingSurface) Present(*Snapshot) error {
	f.seen++
	if f.seen > f.after {
		return ErrSurfaceClosed
	}
	return nil
}

func TestPresentLoop(t *testing.T) {
	t.Run("stops_on_cancel", func(t *testing.T) {
		mb := NewMailbox()
		rec := NewRecorder(0)
		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		wg.Add(1)
		var err error
		go func() {
			defer wg.Done()
			err = Present(ctx, mb, rec)
		}()

		mb.Publish(&Snapshot{Frame: 1})
		require.Eventually(t, func() bool { return rec.Count() == 1 }, time.Second, time.Millisecond)
		cancel()
		wg.Wait()
		assert.NoError(t, err)

		last, ok := rec.Last()
		require.True(t, ok)
		assert.Equal(t, uint64(1), last.Frame)
	})

	t.Run("returns_surface_error", func(t *testing.T) {
		mb := NewMailbox()
		mb.Publish(&Snapshot{})
		err := Present(context.Background(), mb, &failingSurface{})
		assert.True(t, errors.Is(err, ErrSurfaceClosed))
	})
}

func TestRecorderLimit(t *testing.T) {
	rec := NewRecorder(2)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, rec.Present(&Snapshot{Frame: i}))
	}
	frames := rec.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, uint64(4), frames[0].Frame)
	assert.Equal(t, 5, rec.Count())
}

func TestFrameRect(t *testing.T) {
	sheet := image.Rect(0, 0, 64, 32)
	cases := []struct {
		name  string
		frame int
		fw    int
		fh    int
		want  image.Rectangle
	}{
		{"first", 0, 16, 16, image.Rect(0, 0, 16, 16)},
		{"end_of_row", 3, 16, 16, image.Rect(48, 0, 64, 16)},
		{"second_row", 5, 16, 16, image.Rect(16, 16, 32, 32)},
		{"out_of_range", 8, 16, 16, sheet},
		{"no_frame_size", 2, 0, 0, sheet},
		{"negative", -1, 16, 16, sheet},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, FrameRect(sheet, c.frame, c.fw, c.fh))
		})
	}
}
