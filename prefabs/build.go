package prefabs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/asset"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
)

// Source records which prefab an entity was built from, so hot reload can
// find it again.
type Source struct {
	Path string
}

var SourceComponent = component.NewComponent[Source]()

// Script names the tengo script that drives an entity's scripted layer.
type Script struct {
	Path string
}

var ScriptComponent = component.NewComponent[Script]()

// Builder turns prefab specs into entities.
type Builder struct {
	Assets asset.Loader
}

func NewBuilder(assets asset.Loader) *Builder {
	return &Builder{Assets: assets}
}

type componentBuildFn func(b *Builder, w *ecs.World, e ecs.Entity, raw any) error

var componentRegistry = map[string]componentBuildFn{
	"name":         addName,
	"player_tag":   addPlayerTag,
	"transform":    addTransform,
	"sprite":       addSprite,
	"color":        addColor,
	"visibility":   addVisibility,
	"text":         addText,
	"render_layer": addRenderLayer,
	"camera":       addCamera,
	"collider":     addCollider,
	"script":       addScript,
	"animations":   addAnimations,
}

// animations runs last so the autoplay baseline sees every other component.
var componentBuildOrder = []string{
	"name",
	"player_tag",
	"transform",
	"sprite",
	"color",
	"visibility",
	"text",
	"render_layer",
	"camera",
	"collider",
	"script",
	"animations",
}

// BuildEntity loads the prefab file and spawns it.
func (b *Builder) BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	spec, err := LoadEntitySpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	e, err := b.Build(w, spec)
	if err != nil {
		return 0, fmt.Errorf("build entity: %q: %w", prefabPath, err)
	}
	if err := ecs.Add(w, e, SourceComponent.Kind(), &Source{Path: cleanPrefabPath(prefabPath)}); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	return e, nil
}

// Build spawns spec into w. A failing component destroys the half-built
// entity.
func (b *Builder) Build(w *ecs.World, spec EntitySpec) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", spec.Name)
	}

	for name := range spec.Components {
		if _, ok := componentRegistry[name]; !ok {
			return 0, fmt.Errorf("build entity: %w: no builder for component %q", animation.ErrConfiguration, name)
		}
	}

	e := ecs.CreateEntity(w)
	for _, name := range componentBuildOrder {
		raw, ok := spec.Components[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](b, w, e, raw); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("add %q: %w", name, err)
		}
	}
	return e, nil
}

// ComponentNames lists the component keys a prefab may use.
func ComponentNames() []string {
	names := make([]string, 0, len(componentRegistry))
	for name := range componentRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func addName(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	name, ok := raw.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must be a non-empty string")
	}
	return ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: name})
}

func addPlayerTag(_ *Builder, w *ecs.World, e ecs.Entity, _ any) error {
	return ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{})
}

func addTransform(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[TransformComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	if spec.ScaleX == 0 {
		spec.ScaleX = 1
	}
	if spec.ScaleY == 0 {
		spec.ScaleY = 1
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		X:        spec.X,
		Y:        spec.Y,
		ScaleX:   spec.ScaleX,
		ScaleY:   spec.ScaleY,
		Rotation: spec.Rotation,
	})
}

func addSprite(b *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[SpriteComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode sprite spec: %w", err)
	}

	sprite := component.Sprite{
		Frame:      spec.Frame,
		FrameW:     spec.FrameW,
		FrameH:     spec.FrameH,
		OriginX:    spec.OriginX,
		OriginY:    spec.OriginY,
		FacingLeft: spec.FacingLeft,
	}
	if spec.Image != "" {
		if b == nil || b.Assets == nil {
			return fmt.Errorf("load image %q: %w: no asset loader", spec.Image, asset.ErrAssetUnavailable)
		}
		h, err := b.Assets.Load(spec.Image)
		if err != nil {
			if !errors.Is(err, asset.ErrAssetUnavailable) {
				err = fmt.Errorf("%w: %w", asset.ErrAssetUnavailable, err)
			}
			return fmt.Errorf("load image %q: %w", spec.Image, err)
		}
		sprite.Asset = h
	}
	return ecs.Add(w, e, component.SpriteComponent.Kind(), &sprite)
}

func addColor(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[ColorComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode color spec: %w", err)
	}
	c := spec.Color.Component()
	return ecs.Add(w, e, component.ColorComponent.Kind(), &c)
}

func addVisibility(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[VisibilityComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode visibility spec: %w", err)
	}
	return ecs.Add(w, e, component.VisibilityComponent.Kind(), &component.Visibility{Hidden: spec.Hidden})
}

func addText(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[TextComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode text spec: %w", err)
	}
	return ecs.Add(w, e, component.TextComponent.Kind(), &component.Text{Content: spec.Content})
}

func addRenderLayer(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[RenderLayerComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode render layer spec: %w", err)
	}
	return ecs.Add(w, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: spec.Index})
}

func addCamera(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[CameraComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode camera spec: %w", err)
	}
	if spec.Zoom == 0 {
		spec.Zoom = 1
	}
	return ecs.Add(w, e, component.CameraComponent.Kind(), &component.Camera{Zoom: spec.Zoom})
}

func addCollider(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[ColliderComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode collider spec: %w", err)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("collider size must be positive, got %gx%g", spec.Width, spec.Height)
	}
	return ecs.Add(w, e, component.ColliderComponent.Kind(), &component.Collider{
		Width:   spec.Width,
		Height:  spec.Height,
		OffsetX: spec.OffsetX,
		OffsetY: spec.OffsetY,
		Mask:    spec.Mask,
		Filter:  spec.Filter,
	})
}

func addScript(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	spec, err := DecodeComponentSpec[ScriptComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode script spec: %w", err)
	}
	if strings.TrimSpace(spec.Path) == "" {
		return fmt.Errorf("script path is empty")
	}
	return ecs.Add(w, e, ScriptComponent.Kind(), &Script{Path: spec.Path})
}

// decodeAnimationSet accepts either a bare list of animations or a map
// with an "animations" key.
func decodeAnimationSet(raw any) (AnimationSetSpec, error) {
	if _, ok := raw.([]any); ok {
		list, err := DecodeComponentSpec[[]AnimationSpec](raw)
		if err != nil {
			return AnimationSetSpec{}, fmt.Errorf("decode animations spec: %w", err)
		}
		return AnimationSetSpec{Animations: list}, nil
	}
	set, err := DecodeComponentSpec[AnimationSetSpec](raw)
	if err != nil {
		return AnimationSetSpec{}, fmt.Errorf("decode animations spec: %w", err)
	}
	return set, nil
}

func addAnimations(_ *Builder, w *ecs.World, e ecs.Entity, raw any) error {
	set, err := decodeAnimationSet(raw)
	if err != nil {
		return err
	}

	reg, err := BuildRegistry(set)
	if err != nil {
		return err
	}
	if err := ecs.Add(w, e, animation.RegistryComponent.Kind(), reg); err != nil {
		return err
	}
	return autoplay(reg, set)
}

// BuildRegistry builds every animation in set. Any bad animation fails the
// whole set with an animation.ErrConfiguration.
func BuildRegistry(set AnimationSetSpec) (*animation.Registry, error) {
	reg := animation.NewRegistry()
	for _, spec := range set.Animations {
		a, err := BuildAnimation(spec)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(spec.Name, a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func BuildAnimation(spec AnimationSpec) (*animation.Animation, error) {
	mods := make([]animation.Modifier, 0, len(spec.Modifiers))
	for i, ms := range spec.Modifiers {
		m, err := BuildModifier(ms)
		if err != nil {
			return nil, fmt.Errorf("animation %q modifier %d: %w", spec.Name, i, err)
		}
		mods = append(mods, m)
	}
	a, err := animation.New(spec.Duration, mods...)
	if err != nil {
		return nil, fmt.Errorf("animation %q: %w", spec.Name, err)
	}
	if _, err := autoplayMode(spec.Autoplay); err != nil {
		return nil, fmt.Errorf("animation %q: %w", spec.Name, err)
	}
	return a, nil
}

func BuildModifier(spec ModifierSpec) (animation.Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case "sprite":
		if len(spec.Variant) > 0 {
			return animation.SpriteSequenceWithVariant(spec.Frames, spec.Variant, spec.Default), nil
		}
		return animation.SpriteSequence(spec.Frames, spec.Default), nil
	case "transform":
		var d animation.Delta
		if spec.Translate != nil {
			d.Translation = &animation.Vector{X: spec.Translate.X, Y: spec.Translate.Y}
		}
		d.Rotation = spec.Rotate
		d.Scale = spec.Scale
		return animation.TransformDelta(spec.Ticks, d), nil
	case "color":
		if spec.Color == nil {
			return animation.Modifier{}, fmt.Errorf("%w: color modifier has no color", animation.ErrConfiguration)
		}
		return animation.ColorDelta(spec.Ticks, spec.Color.Component()), nil
	case "blink":
		return animation.Blink(spec.Count), nil
	case "text":
		return animation.Typewriter(spec.Content), nil
	}
	return animation.Modifier{}, fmt.Errorf("%w: unknown modifier kind %q", animation.ErrConfiguration, spec.Kind)
}

func autoplayMode(s string) (animation.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return -1, nil
	case "once":
		return animation.Once, nil
	case "loop", "looping":
		return animation.Looping, nil
	case "pingpong", "ping_pong":
		return animation.PingPong, nil
	}
	return -1, fmt.Errorf("%w: unknown autoplay %q", animation.ErrConfiguration, s)
}

func autoplay(reg *animation.Registry, set AnimationSetSpec) error {
	for _, spec := range set.Animations {
		mode, err := autoplayMode(spec.Autoplay)
		if err != nil {
			return err
		}
		if mode < 0 {
			continue
		}
		if _, err := reg.Start(spec.Name, mode); err != nil {
			return err
		}
	}
	return nil
}
