package config

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/soar/periscope/internal/geom"
)

var (
	colorType  = reflect.TypeOf(geom.Color{})
	vecType    = reflect.TypeOf(geom.Vec2{})
	strokeType = reflect.TypeOf(geom.Stroke{})
)

// decodeHook turns the config file's scalar encodings into typed values.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	colorHook,
	vecHook,
	strokeHook,
)

func decode(input, out any, errorUnused bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  decodeHook,
		ErrorUnused: errorUnused,
		TagName:     "mapstructure",
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func colorHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != colorType {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("color must be a string, got %T", data)
	}
	return geom.ParseColor(s)
}

func vecHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != vecType {
		return data, nil
	}
	switch v := data.(type) {
	case map[string]any:
		if err := onlyKeys(v, "x", "y"); err != nil {
			return nil, err
		}
		x, err := number(v, "x")
		if err != nil {
			return nil, err
		}
		y, err := number(v, "y")
		if err != nil {
			return nil, err
		}
		return geom.V(x, y), nil
	case []any:
		if len(v) != 2 {
			return nil, fmt.Errorf("vector must have 2 components, got %d", len(v))
		}
		x, err := toFloat32(v[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat32(v[1])
		if err != nil {
			return nil, err
		}
		return geom.V(x, y), nil
	default:
		return nil, fmt.Errorf("vector must be {x, y} or [x, y], got %T", data)
	}
}

func strokeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != strokeType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stroke must be a table with width and color, got %T", data)
	}
	if err := onlyKeys(m, "width", "color"); err != nil {
		return nil, err
	}
	width, err := number(m, "width")
	if err != nil {
		return nil, err
	}
	raw, ok := m["color"]
	if !ok {
		return nil, fmt.Errorf("stroke color is required")
	}
	c, err := colorHook(nil, colorType, raw)
	if err != nil {
		return nil, err
	}
	return geom.Stroke{Width: width, Color: c.(geom.Color)}, nil
}

func number(m map[string]any, key string) (float32, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%q is required", key)
	}
	f, err := toFloat32(v)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", key, err)
	}
	return f, nil
}

// toFloat32 accepts any numeric kind but not strings or booleans.
func toFloat32(v any) (float32, error) {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return cast.ToFloat32E(v)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func onlyKeys(m map[string]any, allowed ...string) error {
	var extra []string
	for k := range m {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("unknown fields %q", extra)
	}
	return nil
}
