package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/soar/periscope/internal/condition"
	"github.com/soar/periscope/internal/geom"
)

const sampleTOML = `
scale = 2
size = { x = 400, y = 200 }

[[controllers]]
id = 0
layout = "pro"
position = { x = 10, y = 20 }

[[controllers]]
id = 1
layout = "pro"
position = [210, 20]

[[layouts]]
name = "pro"

[[layouts.items]]
type = "image"
path = "assets/base.png"
position = { x = 0, y = 0 }
if = ["Connected"]

[[layouts.items]]
type = "circle"
radius = 8
fill_color = "FFFFFF80"
stroke = { width = 1.5, color = "000000FF" }
position = { x = 30, y = 40 }
position_modifier = { type = "stick_left", range = 12 }
if = ["!ButtonStickLeft"]

[[layouts.items]]
type = "rectangle"
size = { x = 16, y = 8 }
fill_color = "FF00807F"
position = { x = 60, y = 5 }
if = ["ButtonA", "!ButtonB"]

[[items]]
type = "text"
value = "P1"
color = "FFFFFFFF"
size = 14
position = { x = 5, y = 5 }
if = ["Connected0", "!Connected1"]
`

func loadTOML(t *testing.T, src string) (*Config, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/periscope/overlay.toml", []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return Load(fs, "/etc/periscope/overlay.toml")
}

func mustLoad(t *testing.T, src string) *Config {
	t.Helper()
	cfg, err := loadTOML(t, src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoadSample(t *testing.T) {
	cfg := mustLoad(t, sampleTOML)

	if cfg.Scale != 2 || cfg.Size != geom.V(400, 200) {
		t.Fatalf("scale/size = %v %v", cfg.Scale, cfg.Size)
	}
	if w, h := cfg.WindowSize(); w != 800 || h != 400 {
		t.Fatalf("window = %dx%d", w, h)
	}
	if cfg.Title != "Periscope" || cfg.ClearColor != geom.Transparent {
		t.Fatalf("defaults: title %q clear %v", cfg.Title, cfg.ClearColor)
	}

	if len(cfg.Controllers) != 2 {
		t.Fatalf("controllers = %d", len(cfg.Controllers))
	}
	c1 := cfg.Controllers[1]
	if c1.ID != 1 || c1.Position != geom.V(210, 20) || c1.Layout() != cfg.Layout("pro") {
		t.Fatalf("controller 1 = %+v", c1)
	}

	items := cfg.Layout("pro").Items
	if len(items) != 3 {
		t.Fatalf("layout items = %d", len(items))
	}

	if img, ok := items[0].Visual.(Image); !ok || img.Path != "assets/base.png" {
		t.Fatalf("item 0 = %#v", items[0].Visual)
	}

	circle, ok := items[1].Visual.(Circle)
	if !ok {
		t.Fatalf("item 1 = %#v", items[1].Visual)
	}
	wantStroke := geom.Stroke{Width: 1.5, Color: geom.Color{A: 255}}
	if circle.Radius != 8 || circle.Fill != (geom.Color{R: 255, G: 255, B: 255, A: 128}) || circle.Stroke != wantStroke {
		t.Fatalf("circle = %+v", circle)
	}
	if m := items[1].Modifier; m == nil || m.Stick != StickLeft || m.Range != 12 {
		t.Fatalf("modifier = %+v", m)
	}
	if got := items[1].Conditions; len(got) != 1 || !got[0].Negated || got[0].Value != condition.ButtonStickLeft {
		t.Fatalf("conditions = %+v", got)
	}

	rect, ok := items[2].Visual.(Rectangle)
	if !ok || rect.Size != geom.V(16, 8) || rect.Fill != (geom.Color{R: 255, B: 128, A: 127}) || rect.Stroke != (geom.Stroke{}) {
		t.Fatalf("rectangle = %+v", items[2].Visual)
	}

	text, ok := cfg.Items[0].Visual.(Text)
	if !ok || text.Value != "P1" || text.Size != 14 {
		t.Fatalf("global item = %#v", cfg.Items[0].Visual)
	}
	want := []condition.Condition{{Value: condition.Connected0}, {Negated: true, Value: condition.Connected1}}
	if got := cfg.Items[0].Conditions; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("global conditions = %+v", got)
	}
}

func TestParseYAMLAndJSON(t *testing.T) {
	yamlSrc := `
scale: 1
size: [100, 50]
title: Stream overlay
clear_color: "00000080"
stick_deadzone: 0.1
controllers:
  - id: 3
    layout: mini
    position: {x: 0, y: 0}
layouts:
  - name: mini
    items:
      - type: rectangle
        size: [4, 4]
        fill_color: "FFFFFFFF"
        position: [1, 1]
        position_modifier: {type: stick_right, range: 2}
`
	cfg, err := Parse(strings.NewReader(yamlSrc), "yaml")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if cfg.Title != "Stream overlay" || cfg.StickDeadzone != 0.1 || cfg.ClearColor.A != 0x80 {
		t.Fatalf("yaml config = %+v", cfg)
	}
	if m := cfg.Layouts[0].Items[0].Modifier; m == nil || m.Stick != StickRight || m.Range != 2 {
		t.Fatalf("yaml modifier = %+v", m)
	}

	jsonSrc := `{"scale": 1.5, "size": {"x": 10, "y": 10}, "controllers": [],
		"items": [{"type": "circle", "radius": 2, "fill_color": "FF0000FF", "position": {"x": 1, "y": 2}}]}`
	cfg, err = Parse(strings.NewReader(jsonSrc), "json")
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if cfg.Scale != 1.5 || len(cfg.Items) != 1 || len(cfg.Controllers) != 0 || len(cfg.Layouts) != 0 {
		t.Fatalf("json config = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	const head = "scale = 1\nsize = { x = 10, y = 10 }\n"
	const ctrl = "[[controllers]]\nid = 0\nlayout = \"a\"\nposition = { x = 0, y = 0 }\n"
	const layout = "[[layouts]]\nname = \"a\"\n"

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "scale = = 1", "read config"},
		{"missing scale", "size = { x = 1, y = 1 }\ncontrollers = []", "scale is required"},
		{"zero scale", "scale = 0\nsize = { x = 1, y = 1 }\ncontrollers = []", "scale must be positive"},
		{"missing size", "scale = 1\ncontrollers = []", "size is required"},
		{"missing controllers", head, "controllers is required"},
		{"unknown layout", head + ctrl, "unknown layout"},
		{"duplicate layout", head + "controllers = []\n" + layout + layout, "duplicate layout"},
		{"unknown condition", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nposition = [0, 0]\nif = [\"ButtonQ\"]\n", "unknown condition"},
		{"short color", head + "controllers = []\n[[items]]\ntype = \"circle\"\nradius = 1\nfill_color = \"FFFFFF\"\nposition = [0, 0]\n", "8 hex digits"},
		{"bad hex", head + "controllers = []\n[[items]]\ntype = \"text\"\nvalue = \"x\"\ncolor = \"FFFFFFGG\"\nsize = 3\nposition = [0, 0]\n", "8 hex digits"},
		{"unknown type", head + "controllers = []\n[[items]]\ntype = \"triangle\"\nposition = [0, 0]\n", "unknown item type"},
		{"missing type", head + "controllers = []\n[[items]]\nposition = [0, 0]\n", "type is required"},
		{"foreign field", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nradius = 3\nposition = [0, 0]\n", "unknown fields"},
		{"missing position", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\n", "position is required"},
		{"bad modifier", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nposition = [0, 0]\nposition_modifier = { type = \"stick_up\", range = 3 }\n", "unknown type"},
		{"modifier range", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nposition = [0, 0]\nposition_modifier = { type = \"stick_left\" }\n", "range is required"},
		{"vector arity", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nposition = [0, 0, 0]\n", "2 components"},
		{"vector string", head + "controllers = []\n[[items]]\ntype = \"image\"\npath = \"x.png\"\nposition = [\"0\", 0]\n", "expected a number"},
		{"stroke without color", head + "controllers = []\n[[items]]\ntype = \"circle\"\nradius = 1\nfill_color = \"FFFFFFFF\"\nstroke = { width = 1 }\nposition = [0, 0]\n", "stroke color is required"},
		{"controller id range", head + layout + "[[controllers]]\nid = 256\nlayout = \"a\"\nposition = [0, 0]\n", "out of range"},
		{"unknown top-level key", head + "controllers = []\nscael = 2\n", "scael"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadTOML(t, tt.src)
			if err == nil {
				t.Fatalf("Load succeeded: %+v", cfg)
			}
			if cfg != nil {
				t.Fatal("a failed load must not return a partial config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadErrorKinds(t *testing.T) {
	_, err := loadTOML(t, "scale = 1\nsize = [1, 1]\n[[controllers]]\nid = 0\nlayout = \"nope\"\nposition = [0, 0]\n")
	if !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("err = %v, want ErrUnknownLayout", err)
	}

	_, err = loadTOML(t, "scale = 1\nsize = [1, 1]\ncontrollers = []\n[[items]]\ntype = \"image\"\npath = \"a\"\nposition = [0, 0]\nif = [\"!Nope\"]\n")
	if !errors.Is(err, condition.ErrUnknownCondition) {
		t.Fatalf("err = %v, want ErrUnknownCondition", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(afero.NewMemMapFs(), "/nope.toml"); err == nil {
		t.Fatal("loading a missing file succeeded")
	}
}

func TestDump(t *testing.T) {
	cfg := mustLoad(t, sampleTOML)
	var buf bytes.Buffer
	if err := cfg.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"type: circle",
		"fill_color: FFFFFF80",
		"type: stick_left",
		"!ButtonStickLeft",
		"layout: pro",
		"path: assets/base.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
