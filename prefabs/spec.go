package prefabs

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs/component"
	"gopkg.in/yaml.v3"
)

// EntitySpec is one prefab file: a name and a map of component specs keyed
// by component name.
type EntitySpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntitySpec(filename string) (EntitySpec, error) {
	return LoadSpec[EntitySpec](filename)
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	spec, err := DecodeSpec[T](data)
	if err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

// DecodeSpec decodes a prefab document. Keys the spec type does not
// declare fail with animation.ErrConfiguration.
func DecodeSpec[T any](data []byte) (T, error) {
	var spec T
	if err := decodeStrict(data, &spec); err != nil {
		var zero T
		return zero, err
	}
	return spec, nil
}

// DecodeComponentSpec re-decodes one loosely typed component entry into its
// concrete spec type.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := decodeStrict(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", animation.ErrConfiguration, err)
	}
	return nil
}

type TransformComponentSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	ScaleX   float64 `yaml:"scale_x"`
	ScaleY   float64 `yaml:"scale_y"`
	Rotation float64 `yaml:"rotation"`
}

type SpriteComponentSpec struct {
	Image      string  `yaml:"image"`
	Frame      int     `yaml:"frame"`
	FrameW     int     `yaml:"frame_w"`
	FrameH     int     `yaml:"frame_h"`
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
	FacingLeft bool    `yaml:"facing_left"`
}

type ColorComponentSpec struct {
	Color *YAMLColor `yaml:"color"`
}

type VisibilityComponentSpec struct {
	Hidden bool `yaml:"hidden"`
}

type TextComponentSpec struct {
	Content string `yaml:"content"`
}

type RenderLayerComponentSpec struct {
	Index int `yaml:"index"`
}

type CameraComponentSpec struct {
	Zoom float64 `yaml:"zoom"`
}

type ColliderComponentSpec struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
	Mask    uint32  `yaml:"mask"`
	Filter  uint32  `yaml:"filter"`
}

// AnimationSetSpec lists the named animations of one entity, in registry
// order.
type AnimationSetSpec struct {
	Animations []AnimationSpec `yaml:"animations"`
}

type AnimationSpec struct {
	Name      string         `yaml:"name"`
	Duration  time.Duration  `yaml:"duration"`
	Autoplay  string         `yaml:"autoplay"`
	Modifiers []ModifierSpec `yaml:"modifiers"`
}

// ModifierSpec is a tagged union keyed by Kind: sprite, transform, color,
// blink or text.
type ModifierSpec struct {
	Kind string `yaml:"kind"`

	Frames  []int `yaml:"frames"`
	Variant []int `yaml:"variant"`
	Default int   `yaml:"default"`

	Ticks     int         `yaml:"ticks"`
	Translate *VectorSpec `yaml:"translate"`
	Rotate    *float64    `yaml:"rotate"`
	Scale     *float64    `yaml:"scale"`

	Color *YAMLColor `yaml:"color"`

	Count int `yaml:"count"`

	Content string `yaml:"content"`
}

type VectorSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type ScriptComponentSpec struct {
	Path string `yaml:"path"`
}

// YAMLColor decodes "#rrggbb" or "#rrggbbaa".
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

// MarshalYAML keeps DecodeComponentSpec round trips lossless.
func (c YAMLColor) MarshalYAML() (any, error) {
	if c.Color == nil {
		return nil, nil
	}
	n := color.NRGBAModel.Convert(c.Color).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A), nil
}

// Component converts to the engine tint; nil is opaque white.
func (c *YAMLColor) Component() component.Color {
	if c == nil || c.Color == nil {
		return component.White
	}
	return component.FromRGBA(c.Color)
}
