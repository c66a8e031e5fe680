// Package config loads the overlay definition: scale and canvas size,
// controller bindings, named layouts and their items. Loading is all or
// nothing and the result is never modified afterwards.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/soar/periscope/internal/geom"
)

// ErrUnknownLayout is returned when a controller binding names a layout that
// does not exist.
var ErrUnknownLayout = errors.New("unknown layout")

const defaultTitle = "Periscope"

// Config is the root of the overlay definition.
type Config struct {
	Scale         float32      `yaml:"scale"`
	Size          geom.Vec2    `yaml:"size"`
	Title         string       `yaml:"title"`
	ClearColor    geom.Color   `yaml:"clear_color"`
	StickDeadzone float64      `yaml:"stick_deadzone,omitempty"`
	Controllers   []Controller `yaml:"controllers"`
	Layouts       []Layout     `yaml:"layouts"`
	Items         []Item       `yaml:"items"`
}

// Controller binds a controller id to a layout drawn at Position.
type Controller struct {
	ID         uint8     `yaml:"id"`
	LayoutName string    `yaml:"layout"`
	Position   geom.Vec2 `yaml:"position"`

	layout *Layout
}

// Layout returns the bound layout. It is resolved during Load.
func (c *Controller) Layout() *Layout {
	return c.layout
}

type Layout struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Layout looks a layout up by name.
func (c *Config) Layout(name string) *Layout {
	for i := range c.Layouts {
		if c.Layouts[i].Name == name {
			return &c.Layouts[i]
		}
	}
	return nil
}

// WindowSize is the overlay size in screen pixels.
func (c *Config) WindowSize() (int, int) {
	s := c.Size.Scale(c.Scale)
	return int(s.X + 0.5), int(s.Y + 0.5)
}

// Load reads path from fs. The format follows the file extension; files
// without one are read as TOML.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := build(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads a configuration of the given format ("toml", "yaml", "json").
func Parse(r io.Reader, format string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return build(v.AllSettings())
}

type fileController struct {
	ID       *int       `mapstructure:"id"`
	Layout   string     `mapstructure:"layout"`
	Position *geom.Vec2 `mapstructure:"position"`
}

type fileLayout struct {
	Name  string           `mapstructure:"name"`
	Items []map[string]any `mapstructure:"items"`
}

type fileConfig struct {
	Scale         *float32         `mapstructure:"scale"`
	Size          *geom.Vec2       `mapstructure:"size"`
	Title         string           `mapstructure:"title"`
	ClearColor    geom.Color       `mapstructure:"clear_color"`
	StickDeadzone float64          `mapstructure:"stick_deadzone"`
	Controllers   []fileController `mapstructure:"controllers"`
	Layouts       []fileLayout     `mapstructure:"layouts"`
	Items         []map[string]any `mapstructure:"items"`
}

func build(settings map[string]any) (*Config, error) {
	var f fileConfig
	if err := decode(settings, &f, true); err != nil {
		return nil, err
	}

	switch {
	case f.Scale == nil:
		return nil, errors.New("scale is required")
	case *f.Scale <= 0:
		return nil, fmt.Errorf("scale must be positive, got %v", *f.Scale)
	case f.Size == nil:
		return nil, errors.New("size is required")
	case f.Size.X <= 0 || f.Size.Y <= 0:
		return nil, fmt.Errorf("size must be positive, got %vx%v", f.Size.X, f.Size.Y)
	case f.StickDeadzone < 0 || f.StickDeadzone >= 1:
		return nil, fmt.Errorf("stick_deadzone must be in [0, 1), got %v", f.StickDeadzone)
	}
	if _, ok := settings["controllers"]; !ok {
		return nil, errors.New("controllers is required")
	}

	cfg := &Config{
		Scale:         *f.Scale,
		Size:          *f.Size,
		Title:         f.Title,
		ClearColor:    f.ClearColor,
		StickDeadzone: f.StickDeadzone,
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}

	var err error
	cfg.Items, err = buildItems("items", f.Items)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(f.Layouts))
	for i, fl := range f.Layouts {
		path := fmt.Sprintf("layouts[%d]", i)
		if fl.Name == "" {
			return nil, fmt.Errorf("%s: name is required", path)
		}
		if seen[fl.Name] {
			return nil, fmt.Errorf("%s: duplicate layout name %q", path, fl.Name)
		}
		seen[fl.Name] = true

		items, err := buildItems(fmt.Sprintf("%s(%s).items", path, fl.Name), fl.Items)
		if err != nil {
			return nil, err
		}
		cfg.Layouts = append(cfg.Layouts, Layout{Name: fl.Name, Items: items})
	}

	for i, fc := range f.Controllers {
		path := fmt.Sprintf("controllers[%d]", i)
		switch {
		case fc.ID == nil:
			return nil, fmt.Errorf("%s: id is required", path)
		case *fc.ID < 0 || *fc.ID > 255:
			return nil, fmt.Errorf("%s: id %d out of range 0..255", path, *fc.ID)
		case fc.Position == nil:
			return nil, fmt.Errorf("%s: position is required", path)
		}
		c := Controller{
			ID:         uint8(*fc.ID),
			LayoutName: fc.Layout,
			Position:   *fc.Position,
		}
		c.layout = cfg.Layout(fc.Layout)
		if c.layout == nil {
			return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownLayout, fc.Layout)
		}
		cfg.Controllers = append(cfg.Controllers, c)
	}

	return cfg, nil
}

func buildItems(path string, raws []map[string]any) ([]Item, error) {
	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		it, err := buildItem(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		items = append(items, it)
	}
	return items, nil
}
