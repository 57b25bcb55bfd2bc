package component

// RenderLayer is the z-order of a drawable; higher indexes draw on top and
// ties fall back to entity index.
type RenderLayer struct {
	Index int
}

var RenderLayerComponent = NewComponent[RenderLayer]()
