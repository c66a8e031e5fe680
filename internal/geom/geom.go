// Package geom holds the small value types shared by the configuration model
// and the renderer: 2D vectors, RGBA colors and strokes.
package geom

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
)

// ErrBadColor is returned when a color string is not exactly 8 hex digits.
var ErrBadColor = errors.New("color must be 8 hex digits (RRGGBBAA)")

type Vec2 struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
}

func V(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Color is an RGBA color with unmultiplied alpha.
type Color struct {
	R, G, B, A uint8
}

// Transparent is the zero color.
var Transparent Color

// ParseColor decodes an RRGGBBAA hex string.
func ParseColor(s string) (Color, error) {
	if len(s) != 8 {
		return Color{}, fmt.Errorf("%w: %q has length %d", ErrBadColor, s, len(s))
	}
	var rgba [4]uint8
	for i := range rgba {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		rgba[i] = uint8(b)
	}
	return Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}, nil
}

// String encodes the color back to upper-case RRGGBBAA.
func (c Color) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// MarshalText lets encoders (yaml, json) print colors in config form.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// NRGBA converts to the image/color representation, which is also unmultiplied.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Visible reports whether painting with c changes any pixel.
func (c Color) Visible() bool {
	return c.A != 0
}

// Stroke is an outline. A zero width draws nothing.
type Stroke struct {
	Width float32 `yaml:"width" json:"width"`
	Color Color   `yaml:"color" json:"color"`
}

func (s Stroke) Visible() bool {
	return s.Width > 0 && s.Color.Visible()
}

func (s Stroke) Scale(f float32) Stroke {
	return Stroke{Width: s.Width * f, Color: s.Color}
}
