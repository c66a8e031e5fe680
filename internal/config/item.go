package config

import (
	"errors"
	"fmt"

	"github.com/soar/periscope/internal/condition"
	"github.com/soar/periscope/internal/geom"
)

// Visual is what an item draws: one of Image, Text, Rectangle or Circle.
type Visual interface {
	Kind() string
	isVisual()
}

type Image struct {
	Path string `yaml:"path"`
}

type Text struct {
	Value string     `yaml:"value"`
	Color geom.Color `yaml:"color"`
	Size  float32    `yaml:"size"`
}

type Rectangle struct {
	Size   geom.Vec2   `yaml:"size"`
	Fill   geom.Color  `yaml:"fill_color"`
	Stroke geom.Stroke `yaml:"stroke"`
}

type Circle struct {
	Radius float32     `yaml:"radius"`
	Fill   geom.Color  `yaml:"fill_color"`
	Stroke geom.Stroke `yaml:"stroke"`
}

func (Image) Kind() string     { return "image" }
func (Text) Kind() string      { return "text" }
func (Rectangle) Kind() string { return "rectangle" }
func (Circle) Kind() string    { return "circle" }

func (Image) isVisual()     {}
func (Text) isVisual()      {}
func (Rectangle) isVisual() {}
func (Circle) isVisual()    {}

// Stick selects which analog stick displaces an item.
type Stick uint8

const (
	StickLeft Stick = iota + 1
	StickRight
)

func (s Stick) String() string {
	switch s {
	case StickLeft:
		return "stick_left"
	case StickRight:
		return "stick_right"
	}
	return "unknown"
}

// PositionModifier displaces an item by a stick's deflection; full
// deflection moves it by Range (before scaling).
type PositionModifier struct {
	Stick Stick
	Range float32
}

// Item is a visual plus its placement and activation rules.
type Item struct {
	Visual     Visual
	Position   geom.Vec2
	Modifier   *PositionModifier
	Conditions []condition.Condition
}

var commonItemKeys = []string{"type", "position", "position_modifier", "if"}

var itemKeys = map[string][]string{
	"image":     {"path"},
	"text":      {"value", "color", "size"},
	"rectangle": {"size", "fill_color", "stroke"},
	"circle":    {"radius", "fill_color", "stroke"},
}

type fileModifier struct {
	Type  string   `mapstructure:"type"`
	Range *float32 `mapstructure:"range"`
}

type fileItem struct {
	Type             string                `mapstructure:"type"`
	Position         *geom.Vec2            `mapstructure:"position"`
	PositionModifier *fileModifier         `mapstructure:"position_modifier"`
	If               []string              `mapstructure:"if"`

	Path      *string      `mapstructure:"path"`
	Value     *string      `mapstructure:"value"`
	Color     *geom.Color  `mapstructure:"color"`
	Size      any          `mapstructure:"size"`
	Radius    *float32     `mapstructure:"radius"`
	FillColor *geom.Color  `mapstructure:"fill_color"`
	Stroke    *geom.Stroke `mapstructure:"stroke"`
}

func buildItem(raw map[string]any) (Item, error) {
	typ, _ := raw["type"].(string)
	if typ == "" {
		return Item{}, errors.New("type is required")
	}
	keys, ok := itemKeys[typ]
	if !ok {
		return Item{}, fmt.Errorf("unknown item type %q", typ)
	}
	if err := onlyKeys(raw, append(keys, commonItemKeys...)...); err != nil {
		return Item{}, fmt.Errorf("%s item: %w", typ, err)
	}

	var f fileItem
	if err := decode(raw, &f, true); err != nil {
		return Item{}, err
	}
	if f.Position == nil {
		return Item{}, errors.New("position is required")
	}

	it := Item{Position: *f.Position}
	for i, s := range f.If {
		c, err := condition.Parse(s)
		if err != nil {
			return Item{}, fmt.Errorf("if[%d]: %w", i, err)
		}
		it.Conditions = append(it.Conditions, c)
	}

	var err error
	switch typ {
	case "image":
		it.Visual, err = f.image()
	case "text":
		it.Visual, err = f.text()
	case "rectangle":
		it.Visual, err = f.rectangle()
	case "circle":
		it.Visual, err = f.circle()
	}
	if err != nil {
		return Item{}, fmt.Errorf("%s item: %w", typ, err)
	}

	if f.PositionModifier != nil {
		it.Modifier, err = f.PositionModifier.build()
		if err != nil {
			return Item{}, fmt.Errorf("position_modifier: %w", err)
		}
	}
	return it, nil
}

func (f *fileItem) image() (Visual, error) {
	if f.Path == nil || *f.Path == "" {
		return nil, errors.New("path is required")
	}
	return Image{Path: *f.Path}, nil
}

func (f *fileItem) text() (Visual, error) {
	switch {
	case f.Value == nil:
		return nil, errors.New("value is required")
	case f.Color == nil:
		return nil, errors.New("color is required")
	case f.Size == nil:
		return nil, errors.New("size is required")
	}
	size, err := toFloat32(f.Size)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	return Text{Value: *f.Value, Color: *f.Color, Size: size}, nil
}

func (f *fileItem) rectangle() (Visual, error) {
	switch {
	case f.Size == nil:
		return nil, errors.New("size is required")
	case f.FillColor == nil:
		return nil, errors.New("fill_color is required")
	}
	var size geom.Vec2
	if err := decode(f.Size, &size, true); err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	r := Rectangle{Size: size, Fill: *f.FillColor}
	if f.Stroke != nil {
		r.Stroke = *f.Stroke
	}
	return r, nil
}

func (f *fileItem) circle() (Visual, error) {
	switch {
	case f.Radius == nil:
		return nil, errors.New("radius is required")
	case f.FillColor == nil:
		return nil, errors.New("fill_color is required")
	}
	c := Circle{Radius: *f.Radius, Fill: *f.FillColor}
	if f.Stroke != nil {
		c.Stroke = *f.Stroke
	}
	return c, nil
}

func (m *fileModifier) build() (*PositionModifier, error) {
	pm := &PositionModifier{}
	switch m.Type {
	case "stick_left":
		pm.Stick = StickLeft
	case "stick_right":
		pm.Stick = StickRight
	case "":
		return nil, errors.New("type is required")
	default:
		return nil, fmt.Errorf("unknown type %q", m.Type)
	}
	if m.Range == nil {
		return nil, errors.New("range is required")
	}
	pm.Range = *m.Range
	return pm, nil
}
