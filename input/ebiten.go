package input

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const stickDeadzone = 0.2

// Bindings maps each action to the keyboard keys that trigger it.
type Bindings map[Action][]ebiten.Key

func DefaultBindings() Bindings {
	return Bindings{
		ActionLeft:    {ebiten.KeyA, ebiten.KeyArrowLeft},
		ActionRight:   {ebiten.KeyD, ebiten.KeyArrowRight},
		ActionUp:      {ebiten.KeyW, ebiten.KeyArrowUp},
		ActionDown:    {ebiten.KeyS, ebiten.KeyArrowDown},
		ActionJump:    {ebiten.KeySpace},
		ActionConfirm: {ebiten.KeyEnter},
		ActionPause:   {ebiten.KeyEscape, ebiten.KeyP},
		ActionQuit:    {ebiten.KeyQ},
	}
}

// EbitenSource polls ebiten's keyboard, mouse, and first gamepad. Poll must
// run on the ebiten Update goroutine; feed the result to a Latch when the
// simulation runs elsewhere.
type EbitenSource struct {
	bindings Bindings
}

func NewEbitenSource(b Bindings) *EbitenSource {
	if b == nil {
		b = DefaultBindings()
	}
	return &EbitenSource{bindings: b}
}

func (s *EbitenSource) Sample() State {
	return s.Poll()
}

func (s *EbitenSource) Poll() State {
	var st State
	for action, keys := range s.bindings {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				st.Held = st.Held.With(action)
			}
			if inpututil.IsKeyJustPressed(k) {
				st.Pressed = st.Pressed.With(action)
			}
		}
	}

	st.CursorX, st.CursorY = ebiten.CursorPosition()
	st.Click = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	if gamepads := ebiten.GamepadIDs(); len(gamepads) > 0 {
		id := gamepads[0]
		leftX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		if math.Abs(leftX) > stickDeadzone {
			st.MoveX = leftX
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			st.Held = st.Held.With(ActionJump)
		}
		if inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			st.Pressed = st.Pressed.With(ActionJump)
		}
		if inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonCenterRight) {
			st.Pressed = st.Pressed.With(ActionPause)
		}
	}
	return st
}
