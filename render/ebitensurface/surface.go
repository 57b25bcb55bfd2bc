// Package ebitensurface presents snapshots in an ebiten window and feeds
// window input back to the simulation.
package ebitensurface

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
	"golang.org/x/image/font/basicfont"
)

type Options struct {
	Title      string
	Width      int
	Height     int
	Resizable  bool
	Background color.Color
}

// Surface is both a render.Surface and an ebiten.Game. Present runs on the
// presenter goroutine and only swaps a pointer; Update and Draw run on the
// ebiten goroutine, which owns every GPU image.
type Surface struct {
	opts   Options
	lib    *asset.Library
	latch  *input.Latch
	events *render.Events
	source *input.EbitenSource

	current atomic.Pointer[render.Snapshot]
	closed  atomic.Bool

	images      map[asset.Handle]*cachedImage
	face        text.Face
	pause       *ebitenui.UI
	outsideW    int
	outsideH    int
	lastOverlay bool
}

type cachedImage struct {
	img     *ebiten.Image
	version uint64
}

func New(lib *asset.Library, latch *input.Latch, events *render.Events, opts Options) *Surface {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 360
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	s := &Surface{
		opts:   opts,
		lib:    lib,
		latch:  latch,
		events: events,
		source: input.NewEbitenSource(nil),
		images: make(map[asset.Handle]*cachedImage),
		face:   text.NewGoXFace(basicfont.Face7x13),
	}
	s.pause = newPauseUI(s.face, opts.Width, opts.Height, s.sendCommand)
	return s
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (s *Surface) Run() error {
	ebiten.SetWindowTitle(s.opts.Title)
	ebiten.SetWindowSize(s.opts.Width, s.opts.Height)
	if s.opts.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	err := ebiten.RunGame(s)
	s.closed.Store(true)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Close makes the window exit on its next Update.
func (s *Surface) Close() {
	s.closed.Store(true)
}

func (s *Surface) Present(snap *render.Snapshot) error {
	if s.closed.Load() {
		return render.ErrSurfaceClosed
	}
	s.current.Store(snap)
	return nil
}

func (s *Surface) Update() error {
	if s.closed.Load() {
		return ebiten.Termination
	}
	if s.latch != nil {
		s.latch.Store(s.source.Poll())
	}
	snap := s.current.Load()
	paused := snap != nil && snap.Overlay.Paused
	if paused {
		s.pause.Update()
	}
	if paused != s.lastOverlay {
		s.lastOverlay = paused
		s.send(render.Event{Kind: render.EventRedraw})
	}
	return nil
}

func (s *Surface) Draw(screen *ebiten.Image) {
	screen.Fill(s.opts.Background)
	snap := s.current.Load()
	if snap == nil {
		return
	}
	for i := range snap.Entries {
		entry := &snap.Entries[i]
		if entry.HasSprite() {
			s.drawSprite(screen, snap.Camera, entry)
		}
		if entry.Text != "" {
			s.drawText(screen, snap.Camera, entry)
		}
	}
	if snap.Overlay.Paused {
		s.pause.Draw(screen)
	}
}

func (s *Surface) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != s.outsideW || outsideHeight != s.outsideH {
		s.outsideW, s.outsideH = outsideWidth, outsideHeight
		s.send(render.Event{Kind: render.EventResize, Width: outsideWidth, Height: outsideHeight})
	}
	return s.opts.Width, s.opts.Height
}

func (s *Surface) drawSprite(screen *ebiten.Image, cam render.Camera, entry *render.DrawEntry) {
	sheet := s.image(entry.Asset)
	if sheet == nil {
		return
	}
	img := sheet
	rect := render.FrameRect(sheet.Bounds(), entry.Frame, entry.FrameW, entry.FrameH)
	if rect != sheet.Bounds() {
		if sub, ok := sheet.SubImage(rect).(*ebiten.Image); ok {
			img = sub
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-entry.OriginX, -entry.OriginY)

	sx := entry.ScaleX
	if sx == 0 {
		sx = 1
	}
	if entry.FacingLeft {
		sx = -sx
		op.GeoM.Translate(float64(-img.Bounds().Dx()), 0)
	}
	sy := entry.ScaleY
	if sy == 0 {
		sy = 1
	}

	op.GeoM.Scale(sx, sy)
	op.GeoM.Rotate(entry.Rotation)
	op.GeoM.Scale(cam.Zoom, cam.Zoom)
	op.GeoM.Translate((entry.X-cam.X)*cam.Zoom, (entry.Y-cam.Y)*cam.Zoom)
	op.ColorScale.ScaleWithColor(entry.Tint.NRGBA())

	screen.DrawImage(img, op)
}

func (s *Surface) drawText(screen *ebiten.Image, cam render.Camera, entry *render.DrawEntry) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(cam.Zoom, cam.Zoom)
	op.GeoM.Translate((entry.X-cam.X)*cam.Zoom, (entry.Y-cam.Y)*cam.Zoom)
	op.ColorScale.ScaleWithColor(entry.Tint.NRGBA())
	text.Draw(screen, entry.Text, s.face, op)
}

// image returns the GPU copy of h, rebuilding it when the library reloaded
// the asset.
func (s *Surface) image(h asset.Handle) *ebiten.Image {
	if s.lib == nil {
		return nil
	}
	src, version, ok := s.lib.Image(h)
	if !ok {
		return nil
	}
	if c, ok := s.images[h]; ok && c.version == version {
		return c.img
	}
	img := toEbiten(src)
	s.images[h] = &cachedImage{img: img, version: version}
	return img
}

func toEbiten(src image.Image) *ebiten.Image {
	if img, ok := src.(*ebiten.Image); ok {
		return img
	}
	return ebiten.NewImageFromImage(src)
}

func (s *Surface) sendCommand(cmd string) {
	s.send(render.Event{Kind: render.EventCommand, Command: cmd})
}

func (s *Surface) send(ev render.Event) {
	if s.events != nil {
		s.events.Send(ev)
	}
}
