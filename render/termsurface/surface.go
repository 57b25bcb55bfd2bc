// Package termsurface presents snapshots in a terminal through tcell. Each
// drawable becomes one glyph; text entries are written as-is.
package termsurface

import (
	"context"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/input"
	"github.com/milk9111/stagehand/render"
)

type Options struct {
	// CellWidth and CellHeight are the world units covered by one cell.
	CellWidth  float64
	CellHeight float64
	// Glyphs picks the rune drawn for a sprite asset; unknown assets use
	// DefaultGlyph.
	Glyphs       map[asset.Handle]rune
	DefaultGlyph rune
}

// Surface draws on a tcell screen. Present runs on the presenter goroutine
// and PollInput on its own; tcell serialises screen access internally.
type Surface struct {
	screen tcell.Screen
	latch  *input.Latch
	events *render.Events
	opts   Options
}

func New(screen tcell.Screen, latch *input.Latch, events *render.Events, opts Options) (*Surface, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	if opts.CellWidth <= 0 {
		opts.CellWidth = 8
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = 16
	}
	if opts.DefaultGlyph == 0 {
		opts.DefaultGlyph = '@'
	}
	screen.HideCursor()
	return &Surface{screen: screen, latch: latch, events: events, opts: opts}, nil
}

func (s *Surface) Close() {
	s.screen.Fini()
}

func (s *Surface) Present(snap *render.Snapshot) error {
	s.screen.Clear()
	width, height := s.screen.Size()

	for i := range snap.Entries {
		entry := &snap.Entries[i]
		col, row := s.cell(snap.Camera, entry.X, entry.Y)
		style := tcell.StyleDefault.Foreground(tcellColor(entry))
		if entry.HasSprite() {
			if inside(col, row, width, height) {
				s.screen.SetContent(col, row, s.glyph(entry.Asset), nil, style)
			}
		}
		if entry.Text != "" {
			s.writeText(col, row, entry.Text, style, width, height)
		}
	}

	if snap.Overlay.Paused {
		title := snap.Overlay.Title
		if title == "" {
			title = "PAUSED"
		}
		style := tcell.StyleDefault.Reverse(true)
		s.writeText((width-len(title))/2, height/2, title, style, width, height)
	}

	s.screen.Show()
	if s.latch != nil {
		// terminals report no key release: a key counts as held until the
		// next presented frame
		s.latch.Store(input.State{})
	}
	return nil
}

// PollInput forwards terminal events until ctx is done or the screen is
// finalised.
func (s *Surface) PollInput(ctx context.Context) error {
	evCh := make(chan tcell.Event, 16)
	go func() {
		defer close(evCh)
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case evCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evCh:
			if !ok {
				return nil
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Surface) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			s.send(render.Event{Kind: render.EventCommand, Command: render.CommandQuit})
			return
		}
		action, ok := actionForKey(ev.Key(), ev.Rune())
		if !ok {
			return
		}
		if s.latch != nil {
			s.latch.Store(input.Press(action))
		}
	case *tcell.EventResize:
		w, h := ev.Size()
		s.send(render.Event{Kind: render.EventResize, Width: w, Height: h})
	}
}

func actionForKey(key tcell.Key, r rune) (input.Action, bool) {
	switch key {
	case tcell.KeyLeft:
		return input.ActionLeft, true
	case tcell.KeyRight:
		return input.ActionRight, true
	case tcell.KeyUp:
		return input.ActionUp, true
	case tcell.KeyDown:
		return input.ActionDown, true
	case tcell.KeyEnter:
		return input.ActionConfirm, true
	case tcell.KeyEscape:
		return input.ActionPause, true
	case tcell.KeyRune:
		switch r {
		case 'a', 'h':
			return input.ActionLeft, true
		case 'd', 'l':
			return input.ActionRight, true
		case 'w', 'k':
			return input.ActionUp, true
		case 's', 'j':
			return input.ActionDown, true
		case ' ':
			return input.ActionJump, true
		case 'p':
			return input.ActionPause, true
		case 'q':
			return input.ActionQuit, true
		}
	}
	return 0, false
}

func (s *Surface) cell(cam render.Camera, x, y float64) (int, int) {
	zoom := cam.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	col := int(math.Floor((x - cam.X) * zoom / s.opts.CellWidth))
	row := int(math.Floor((y - cam.Y) * zoom / s.opts.CellHeight))
	return col, row
}

func (s *Surface) glyph(h asset.Handle) rune {
	if r, ok := s.opts.Glyphs[h]; ok {
		return r
	}
	return s.opts.DefaultGlyph
}

func (s *Surface) writeText(col, row int, str string, style tcell.Style, width, height int) {
	for _, r := range str {
		if inside(col, row, width, height) {
			s.screen.SetContent(col, row, r, nil, style)
		}
		col++
	}
}

func (s *Surface) send(ev render.Event) {
	if s.events != nil {
		s.events.Send(ev)
	}
}

func inside(col, row, width, height int) bool {
	return col >= 0 && row >= 0 && col < width && row < height
}

func tcellColor(entry *render.DrawEntry) tcell.Color {
	c := entry.Tint
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
