// Package assets embeds the demo's sprite sheets.
package assets

import (
	"embed"

	"github.com/milk9111/stagehand/asset"
)

//go:embed *.png
var FS embed.FS

// NewLibrary returns an asset library over the embedded images.
func NewLibrary() *asset.Library {
	return asset.NewLibrary(FS)
}
