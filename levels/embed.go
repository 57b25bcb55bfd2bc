// Package levels loads JSON level files and spawns them into a world.
package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed *.json
var LevelsFS embed.FS

var ErrInvalidLevel = errors.New("levels: invalid level")

// DefaultTileSize is used when a level does not set tile_size.
const DefaultTileSize = 16

type Level struct {
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	TileSize     int           `json:"tile_size,omitempty"`
	Layers       [][]int       `json:"layers"`
	TilesetUsage [][]*TileInfo `json:"tileset_usage"`
	LayerMeta    []LayerMeta   `json:"layer_meta,omitempty"`
	Entities     []Entity      `json:"entities,omitempty"`
}

type LayerMeta struct {
	Physics bool `json:"physics"`
	// Mask is the collider mask of merged physics tiles; zero uses
	// TerrainMask.
	Mask uint32 `json:"mask,omitempty"`
}

type Entity struct {
	Type  string                 `json:"type"`
	X     int                    `json:"x"`
	Y     int                    `json:"y"`
	Props map[string]interface{} `json:"props,omitempty"`
}

type TileInfo struct {
	Path  string `json:"path"`
	Index int    `json:"index"`
	TileW int    `json:"tile_w"`
	TileH int    `json:"tile_h"`
}

func LoadLevelFromFS(name string) (*Level, error) {
	return LoadLevel(LevelsFS, name)
}

func LoadLevel(fsys fs.FS, name string) (*Level, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Validate checks that every layer covers the whole grid.
func (l *Level) Validate() error {
	if l.Width < 0 || l.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidLevel, l.Width, l.Height)
	}
	cells := l.Width * l.Height
	for i, layer := range l.Layers {
		if len(layer) != cells {
			return fmt.Errorf("%w: layer %d has %d cells, want %d", ErrInvalidLevel, i, len(layer), cells)
		}
		if i < len(l.TilesetUsage) && l.TilesetUsage[i] != nil && len(l.TilesetUsage[i]) != cells {
			return fmt.Errorf("%w: tileset usage %d has %d cells, want %d", ErrInvalidLevel, i, len(l.TilesetUsage[i]), cells)
		}
	}
	for i, ent := range l.Entities {
		if ent.Type == "" {
			return fmt.Errorf("%w: entity %d has no type", ErrInvalidLevel, i)
		}
	}
	return nil
}

func (l *Level) tileSize() int {
	if l.TileSize > 0 {
		return l.TileSize
	}
	return DefaultTileSize
}
