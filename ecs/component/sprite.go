package component

import "github.com/milk9111/stagehand/asset"

// Sprite draws one frame of a sheet. Frames are numbered row-major across
// the sheet in FrameW x FrameH cells; a zero FrameW draws the whole image.
type Sprite struct {
	Asset      asset.Handle
	Frame      int
	FrameW     int
	FrameH     int
	OriginX    float64
	OriginY    float64
	FacingLeft bool
}

var SpriteComponent = NewComponent[Sprite]()
