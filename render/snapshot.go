// Package render carries the simulation's view of the world to whatever is
// drawing it. The simulation extracts an immutable Snapshot each tick and
// publishes it to a Mailbox; a Surface presents it on its own goroutine.
package render

import (
	"image"
	"sort"
	"time"

	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
)

// DrawEntry is one drawable, copied out of the world.
type DrawEntry struct {
	Entity uint64
	Layer  int

	X        float64
	Y        float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64

	Asset      asset.Handle
	Frame      int
	FrameW     int
	FrameH     int
	OriginX    float64
	OriginY    float64
	FacingLeft bool

	Tint component.Color
	Text string
}

// HasSprite reports whether the entry draws an image.
func (d *DrawEntry) HasSprite() bool {
	return d.Asset.Valid()
}

type Camera struct {
	X    float64
	Y    float64
	Zoom float64
}

// Overlay is UI state the simulation wants shown on top of the scene. Layers
// set it through the world resource of the same type.
type Overlay struct {
	Paused bool
	Title  string
}

// Snapshot is a read-only picture of one tick. Presenters must not mutate
// it; the simulation never touches a snapshot after publishing it.
type Snapshot struct {
	Frame   uint64
	Elapsed time.Duration
	Camera  Camera
	Entries []DrawEntry
	Overlay Overlay
}

// Extract copies every visible drawable out of w, ordered by render layer
// and then entity index. An entity is drawable when it has a Transform and
// either a Sprite or a Text.
func Extract(w *ecs.World, frame uint64, elapsed time.Duration) *Snapshot {
	snap := &Snapshot{Frame: frame, Elapsed: elapsed, Camera: Camera{Zoom: 1}}
	if w == nil {
		return snap
	}

	camEntity, hasCam := w.First(component.CameraComponent.Kind())
	if hasCam {
		if t, ok := ecs.Get(w, camEntity, component.TransformComponent.Kind()); ok {
			snap.Camera.X, snap.Camera.Y = t.X, t.Y
		}
		if c, ok := ecs.Get(w, camEntity, component.CameraComponent.Kind()); ok && c.Zoom > 0 {
			snap.Camera.Zoom = c.Zoom
		}
	}
	if o, ok := ecs.Resource[Overlay](w); ok {
		snap.Overlay = *o
	}

	ecs.ForEach(w, component.TransformComponent.Kind(), func(e ecs.Entity, t *component.Transform) {
		if hasCam && e == camEntity {
			return
		}
		if v, ok := ecs.Get(w, e, component.VisibilityComponent.Kind()); ok && v.Hidden {
			return
		}
		s, hasSprite := ecs.Get(w, e, component.SpriteComponent.Kind())
		txt, hasText := ecs.Get(w, e, component.TextComponent.Kind())
		if !hasSprite && !hasText {
			return
		}

		entry := DrawEntry{
			Entity:   uint64(e),
			X:        t.X,
			Y:        t.Y,
			Rotation: t.Rotation,
			ScaleX:   t.ScaleX,
			ScaleY:   t.ScaleY,
			Tint:     component.White,
		}
		if l, ok := ecs.Get(w, e, component.RenderLayerComponent.Kind()); ok {
			entry.Layer = l.Index
		}
		if hasSprite {
			entry.Asset = s.Asset
			entry.Frame = s.Frame
			entry.FrameW, entry.FrameH = s.FrameW, s.FrameH
			entry.OriginX, entry.OriginY = s.OriginX, s.OriginY
			entry.FacingLeft = s.FacingLeft
		}
		if hasText {
			entry.Text = txt.Content
		}
		if c, ok := ecs.Get(w, e, component.ColorComponent.Kind()); ok {
			entry.Tint = *c
		}
		snap.Entries = append(snap.Entries, entry)
	})

	// ForEach already yields index order; stable keeps it within a layer
	sort.SliceStable(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Layer < snap.Entries[j].Layer
	})
	return snap
}

// FrameRect returns the source rectangle of frame in a sheet of the given
// size, numbering frameW x frameH cells row-major. A zero frame size, or a
// frame outside the sheet, selects the whole sheet.
func FrameRect(sheet image.Rectangle, frame, frameW, frameH int) image.Rectangle {
	if frameW <= 0 || frameH <= 0 || frame < 0 {
		return sheet
	}
	cols := sheet.Dx() / frameW
	rows := sheet.Dy() / frameH
	if cols == 0 || rows == 0 || frame >= cols*rows {
		return sheet
	}
	x := sheet.Min.X + (frame%cols)*frameW
	y := sheet.Min.Y + (frame/cols)*frameH
	return image.Rect(x, y, x+frameW, y+frameH)
}
