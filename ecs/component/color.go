package component

import (
	"fmt"
	"image/color"
)

// Color is a tint: 8-bit RGB with a [0,1] alpha.
type Color struct {
	R uint8
	G uint8
	B uint8
	A float32
}

func NewColor(r, g, b uint8, a float32) Color {
	return Color{R: r, G: g, B: b, A: clampAlpha(a)}
}

// White is the identity tint.
var White = Color{R: 255, G: 255, B: 255, A: 1}

// FromRGBA converts any image/color value.
func FromRGBA(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: float32(n.A) / 255}
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(clampAlpha(c.A)*255 + 0.5)}
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, c.A)
}

func clampAlpha(a float32) float32 {
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	}
	return a
}

var ColorComponent = NewComponent[Color]()
