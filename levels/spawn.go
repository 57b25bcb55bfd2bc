package levels

import (
	"fmt"
	"strings"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
	"github.com/milk9111/stagehand/prefabs"
)

// TerrainMask is the collider mask of physics tiles.
const TerrainMask uint32 = 1 << 2

// Spawn creates tile, collider and prefab entities for lvl and returns every
// entity it created. On error the entities created so far are destroyed.
func Spawn(w *ecs.World, lvl *Level, b *prefabs.Builder) ([]ecs.Entity, error) {
	s := &spawner{world: w, builder: b}
	if err := s.spawn(lvl); err != nil {
		for _, e := range s.created {
			ecs.DestroyEntity(w, e)
		}
		return nil, err
	}
	return s.created, nil
}

type spawner struct {
	world   *ecs.World
	builder *prefabs.Builder
	created []ecs.Entity
}

func (s *spawner) spawn(lvl *Level) error {
	tileSize := float64(lvl.tileSize())
	for layerIdx, layer := range lvl.Layers {
		var usage []*TileInfo
		if layerIdx < len(lvl.TilesetUsage) {
			usage = lvl.TilesetUsage[layerIdx]
		}
		for tileIdx, tileID := range layer {
			if tileID <= 0 || tileIdx >= len(usage) || usage[tileIdx] == nil {
				continue
			}
			x := tileIdx % lvl.Width
			y := tileIdx / lvl.Width
			if err := s.addTile(usage[tileIdx], layerIdx, float64(x)*tileSize, float64(y)*tileSize, lvl.tileSize()); err != nil {
				return fmt.Errorf("tile %d,%d: %w", x, y, err)
			}
		}
		if layerIdx < len(lvl.LayerMeta) && lvl.LayerMeta[layerIdx].Physics {
			mask := lvl.LayerMeta[layerIdx].Mask
			if mask == 0 {
				mask = TerrainMask
			}
			if err := s.addMergedTileColliders(layer, lvl.Width, lvl.Height, tileSize, mask); err != nil {
				return err
			}
		}
	}

	for i, ent := range lvl.Entities {
		if err := s.addEntity(ent); err != nil {
			return fmt.Errorf("entity %d (%s): %w", i, ent.Type, err)
		}
	}
	return nil
}

func (s *spawner) addTile(info *TileInfo, layerIdx int, x, y float64, tileSize int) error {
	if s.builder == nil || s.builder.Assets == nil {
		return fmt.Errorf("no asset loader for %q", info.Path)
	}
	h, err := s.builder.Assets.Load(info.Path)
	if err != nil {
		return err
	}
	tileW, tileH := info.TileW, info.TileH
	if tileW <= 0 {
		tileW = tileSize
	}
	if tileH <= 0 {
		tileH = tileSize
	}

	e := s.create()
	if err := ecs.Add(s.world, e, component.TransformComponent.Kind(), component.NewTransform(x, y)); err != nil {
		return err
	}
	if err := ecs.Add(s.world, e, component.SpriteComponent.Kind(), &component.Sprite{
		Asset:  h,
		Frame:  info.Index,
		FrameW: tileW,
		FrameH: tileH,
	}); err != nil {
		return err
	}
	return ecs.Add(s.world, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: layerIdx})
}

// addMergedTileColliders covers solid tiles with as few boxes as possible,
// growing each box right and then down.
func (s *spawner) addMergedTileColliders(layer []int, width, height int, tileSize float64, mask uint32) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	visited := make([]bool, width*height)
	index := func(x, y int) int { return y*width + x }
	solid := func(idx int) bool { return idx < len(layer) && !visited[idx] && layer[idx] > 0 }

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !solid(index(x, y)) {
				continue
			}

			maxW := 0
			for x2 := x; x2 < width && solid(index(x2, y)); x2++ {
				maxW++
			}

			maxH := 1
			for y2 := y + 1; y2 < height; y2++ {
				rowOK := true
				for x2 := x; x2 < x+maxW; x2++ {
					if !solid(index(x2, y2)) {
						rowOK = false
						break
					}
				}
				if !rowOK {
					break
				}
				maxH++
			}

			for yy := y; yy < y+maxH; yy++ {
				for xx := x; xx < x+maxW; xx++ {
					visited[index(xx, yy)] = true
				}
			}

			w, h := float64(maxW)*tileSize, float64(maxH)*tileSize
			e := s.create()
			if err := ecs.Add(s.world, e, component.TransformComponent.Kind(), component.NewTransform(float64(x)*tileSize, float64(y)*tileSize)); err != nil {
				return err
			}
			if err := ecs.Add(s.world, e, component.ColliderComponent.Kind(), &component.Collider{
				Width:   w,
				Height:  h,
				OffsetX: w / 2,
				OffsetY: h / 2,
				Mask:    mask,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *spawner) addEntity(ent Entity) error {
	if s.builder == nil {
		return fmt.Errorf("no prefab builder")
	}
	name := strings.ToLower(ent.Type)
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	e, err := s.builder.BuildEntity(s.world, name)
	if err != nil {
		return err
	}
	s.created = append(s.created, e)

	t, ok := ecs.Get(s.world, e, component.TransformComponent.Kind())
	if !ok {
		t = component.NewTransform(0, 0)
		if err := ecs.Add(s.world, e, component.TransformComponent.Kind(), t); err != nil {
			return err
		}
	}
	t.X = float64(ent.X)
	t.Y = float64(ent.Y)

	return s.applyProps(e, ent.Props)
}

// applyProps handles the per-placement overrides: name, text and a looping
// animation to start.
func (s *spawner) applyProps(e ecs.Entity, props map[string]interface{}) error {
	if v, ok := props["name"].(string); ok && v != "" {
		if err := ecs.Add(s.world, e, component.NameComponent.Kind(), &component.Name{Value: v}); err != nil {
			return err
		}
	}
	if v, ok := props["text"].(string); ok {
		if err := ecs.Add(s.world, e, component.TextComponent.Kind(), &component.Text{Content: v}); err != nil {
			return err
		}
	}
	if v, ok := props["loop"].(string); ok && v != "" {
		reg, err := ecs.Require(s.world, e, animation.RegistryComponent.Kind())
		if err != nil {
			return fmt.Errorf("loop %q: %w", v, err)
		}
		if _, err := reg.Loop(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *spawner) create() ecs.Entity {
	e := ecs.CreateEntity(s.world)
	s.created = append(s.created, e)
	return e
}
