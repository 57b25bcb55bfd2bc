package animation

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/milk9111/stagehand/clock"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type ModifierKind int

const (
	SpriteSequenceKind ModifierKind = iota
	TransformDeltaKind
	ColorDeltaKind
	BlinkKind
	TextKind
)

func (k ModifierKind) String() string {
	switch k {
	case SpriteSequenceKind:
		return "sprite"
	case TransformDeltaKind:
		return "transform"
	case ColorDeltaKind:
		return "color"
	case BlinkKind:
		return "blink"
	case TextKind:
		return "text"
	}
	return "unknown"
}

type Vector struct {
	X float64
	Y float64
}

// Delta is the total change a TransformDelta spreads over its ticks. Nil
// fields are left untouched.
type Delta struct {
	Translation *Vector
	Rotation    *float64
	Scale       *float64
}

// Modifier is one timed mutation inside an Animation. Build it with the
// constructors below; the Kind selects which fields are meaningful.
type Modifier struct {
	Kind ModifierKind

	Frames  []int
	Variant []int
	Default int

	Ticks int
	Delta Delta

	Target component.Color

	Blinks int

	Content string

	keyframe time.Duration
	timer    *clock.Timer
	step     int
	done     bool
	begun    bool
	variant  bool

	from        component.Transform
	anchor      component.Transform
	anchorFrame int

	fromColor   component.Color
	toColor     component.Color
	anchorColor component.Color
	tweens      [4]*gween.Tween
}

// SpriteSequence cycles the sprite through frames, one per keyframe, and
// shows def when a one-shot playback completes.
func SpriteSequence(frames []int, def int) Modifier {
	return Modifier{Kind: SpriteSequenceKind, Frames: append([]int(nil), frames...), Default: def}
}

// SpriteSequenceWithVariant alternates between frames and variant on every
// pass, e.g. left-foot and right-foot walk cycles.
func SpriteSequenceWithVariant(frames, variant []int, def int) Modifier {
	m := SpriteSequence(frames, def)
	m.Variant = append([]int(nil), variant...)
	return m
}

func TransformDelta(ticks int, d Delta) Modifier {
	return Modifier{Kind: TransformDeltaKind, Ticks: ticks, Delta: d}
}

func Translate(ticks int, x, y float64) Modifier {
	return TransformDelta(ticks, Delta{Translation: &Vector{X: x, Y: y}})
}

func Rotate(ticks int, angle float64) Modifier {
	return TransformDelta(ticks, Delta{Rotation: &angle})
}

func Scale(ticks int, factor float64) Modifier {
	return TransformDelta(ticks, Delta{Scale: &factor})
}

func ColorDelta(ticks int, target component.Color) Modifier {
	return Modifier{Kind: ColorDeltaKind, Ticks: ticks, Target: target}
}

// Blink hides and shows the entity count times.
func Blink(count int) Modifier {
	return Modifier{Kind: BlinkKind, Blinks: count}
}

// Typewriter reveals content one rune per keyframe.
func Typewriter(content string) Modifier {
	return Modifier{Kind: TextKind, Content: content}
}

// Steps is the number of keyframes in one pass.
func (m *Modifier) Steps() int {
	switch m.Kind {
	case SpriteSequenceKind:
		return len(m.Frames)
	case TransformDeltaKind, ColorDeltaKind:
		return m.Ticks
	case BlinkKind:
		return 2 * m.Blinks
	case TextKind:
		return utf8.RuneCountInString(m.Content)
	}
	return 0
}

// Keyframe is the duration of one step.
func (m *Modifier) Keyframe() time.Duration {
	return m.keyframe
}

func (m *Modifier) validate() error {
	if m.Steps() <= 0 {
		return configError("%s modifier has no steps", m.Kind)
	}
	switch m.Kind {
	case SpriteSequenceKind:
		if len(m.Variant) > 0 && len(m.Variant) != len(m.Frames) {
			return configError("sprite variant has %d frames, want %d", len(m.Variant), len(m.Frames))
		}
	case TransformDeltaKind:
		if m.Delta.Translation == nil && m.Delta.Rotation == nil && m.Delta.Scale == nil {
			return configError("transform modifier changes nothing")
		}
	case ColorDeltaKind, BlinkKind, TextKind:
	default:
		return configError("unknown modifier kind %d", m.Kind)
	}
	return nil
}

func (m *Modifier) affects(t *Target) bool {
	switch m.Kind {
	case SpriteSequenceKind:
		return t.Sprite != nil
	case TransformDeltaKind:
		return t.Transform != nil
	case ColorDeltaKind:
		return t.Color != nil
	case BlinkKind:
		return t.Visibility != nil
	case TextKind:
		return t.Text != nil
	}
	return false
}

func (m *Modifier) reset() {
	m.step = 0
	m.done = false
	m.begun = false
	if m.timer != nil {
		m.timer.Reset()
	}
}

// beginPass records where this pass starts and puts the target on the
// first keyframe.
func (m *Modifier) beginPass(t *Target, dir Direction) {
	m.begun = true
	switch m.Kind {
	case SpriteSequenceKind:
		if t.Sprite != nil {
			if dir == Forward {
				m.anchorFrame = t.Sprite.Frame
			}
			t.Sprite.Frame = m.frameAt(0, dir)
		}
	case TransformDeltaKind:
		if t.Transform != nil {
			m.from = *t.Transform
			if dir == Forward {
				m.anchor = m.from
			}
		}
	case ColorDeltaKind:
		if t.Color != nil {
			m.fromColor = *t.Color
			to := m.Target
			if dir == Forward {
				m.anchorColor = m.fromColor
			} else {
				to = m.anchorColor
			}
			m.toColor = to
			n := float32(m.Ticks)
			m.tweens[0] = gween.New(float32(m.fromColor.R), float32(to.R), n, ease.Linear)
			m.tweens[1] = gween.New(float32(m.fromColor.G), float32(to.G), n, ease.Linear)
			m.tweens[2] = gween.New(float32(m.fromColor.B), float32(to.B), n, ease.Linear)
			m.tweens[3] = gween.New(m.fromColor.A, to.A, n, ease.Linear)
		}
	case TextKind:
		if t.Text != nil {
			if dir == Forward {
				t.Text.Content = ""
			} else {
				t.Text.Content = m.Content
			}
		}
	}
}

// advance feeds elapsed into the keyframe timer and applies the completed
// steps. It reports the steps applied and the time they consumed.
func (m *Modifier) advance(elapsed time.Duration, t *Target, dir Direction) (int, time.Duration) {
	if m.done {
		return 0, 0
	}
	m.timer.Add(elapsed)
	n := m.timer.Cycles()
	if left := m.Steps() - m.step; n > left {
		n = left
	}
	for i := 0; i < n; i++ {
		m.step++
		m.apply(t, dir)
	}
	if m.step >= m.Steps() {
		m.done = true
	}
	return n, time.Duration(n) * m.keyframe
}

func (m *Modifier) apply(t *Target, dir Direction) {
	last := m.step == m.Steps()
	switch m.Kind {
	case SpriteSequenceKind:
		if t.Sprite != nil {
			t.Sprite.Frame = m.frameAt(m.step, dir)
		}
	case TransformDeltaKind:
		if t.Transform != nil {
			m.applyTransform(t.Transform, dir, last)
		}
	case ColorDeltaKind:
		if t.Color != nil && last {
			*t.Color = m.toColor
		} else if t.Color != nil && m.tweens[0] != nil {
			r, _ := m.tweens[0].Update(1)
			g, _ := m.tweens[1].Update(1)
			b, _ := m.tweens[2].Update(1)
			a, _ := m.tweens[3].Update(1)
			*t.Color = component.NewColor(channel(r), channel(g), channel(b), a)
		}
	case BlinkKind:
		if t.Visibility != nil {
			if last {
				t.Visibility.Hidden = false
			} else {
				t.Visibility.Hidden = !t.Visibility.Hidden
			}
		}
	case TextKind:
		if t.Text != nil {
			runes := []rune(m.Content)
			n := m.step
			if dir == Backward {
				n = len(runes) - m.step
			}
			t.Text.Content = string(runes[:n])
		}
	}
}

func (m *Modifier) applyTransform(tr *component.Transform, dir Direction, last bool) {
	d := m.Delta
	if last {
		// snap the touched fields to the exact end of the pass
		end := m.anchor
		if dir == Forward {
			end = m.from
			if d.Translation != nil {
				end.X += d.Translation.X
				end.Y += d.Translation.Y
			}
			if d.Rotation != nil {
				end.Rotation += *d.Rotation
			}
			if d.Scale != nil {
				end.ScaleX += *d.Scale
				end.ScaleY += *d.Scale
			}
		}
		if d.Translation != nil {
			tr.X, tr.Y = end.X, end.Y
		}
		if d.Rotation != nil {
			tr.Rotation = end.Rotation
		}
		if d.Scale != nil {
			tr.ScaleX, tr.ScaleY = end.ScaleX, end.ScaleY
		}
		return
	}

	sign := 1.0
	if dir == Backward {
		sign = -1
	}
	n := float64(m.Ticks)
	if d.Translation != nil {
		tr.Translate(sign*d.Translation.X/n, sign*d.Translation.Y/n)
	}
	if d.Rotation != nil {
		tr.Rotation += sign * *d.Rotation / n
	}
	if d.Scale != nil {
		tr.ScaleX += sign * *d.Scale / n
		tr.ScaleY += sign * *d.Scale / n
	}
}

// endPass runs once every modifier of the animation has finished the pass.
// With wrap set the sprite moves straight to the first frame of the next
// pass, so every frame of a looping sequence covers one keyframe.
func (m *Modifier) endPass(t *Target, dir Direction, finished, wrap bool) {
	if m.Kind != SpriteSequenceKind || t.Sprite == nil {
		return
	}
	switch {
	case finished:
		t.Sprite.Frame = m.Default
	case dir == Backward:
		t.Sprite.Frame = m.anchorFrame
	}
	if len(m.Variant) > 0 {
		m.variant = !m.variant
	}
	if wrap {
		t.Sprite.Frame = m.frameAt(0, Forward)
	}
}

// frameAt returns the frame shown after step steps of a pass.
func (m *Modifier) frameAt(step int, dir Direction) int {
	seq := m.Frames
	if m.variant && len(m.Variant) == len(m.Frames) {
		seq = m.Variant
	}
	i := step
	if i > len(seq)-1 {
		i = len(seq) - 1
	}
	if dir == Backward {
		i = len(seq) - 1 - i
	}
	return seq[i]
}

func channel(v float32) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)))))
}
