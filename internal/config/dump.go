package config

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/soar/periscope/internal/condition"
	"github.com/soar/periscope/internal/geom"
)

type dumpModifier struct {
	Type  string  `yaml:"type"`
	Range float32 `yaml:"range"`
}

type dumpItem struct {
	Type     string                `yaml:"type"`
	Position geom.Vec2             `yaml:"position"`
	Modifier *dumpModifier         `yaml:"position_modifier,omitempty"`
	If       []condition.Condition `yaml:"if,omitempty"`
}

// MarshalYAML writes the item back in its file shape: the type tag first,
// then the visual's own fields, then placement and conditions.
func (it Item) MarshalYAML() (any, error) {
	d := dumpItem{
		Type:     it.Visual.Kind(),
		Position: it.Position,
		If:       it.Conditions,
	}
	if it.Modifier != nil {
		d.Modifier = &dumpModifier{Type: it.Modifier.Stick.String(), Range: it.Modifier.Range}
	}

	var head, visual yaml.Node
	if err := head.Encode(d); err != nil {
		return nil, err
	}
	if err := visual.Encode(it.Visual); err != nil {
		return nil, err
	}

	out := &yaml.Node{Kind: yaml.MappingNode}
	out.Content = append(out.Content, head.Content[:2]...)
	out.Content = append(out.Content, visual.Content...)
	out.Content = append(out.Content, head.Content[2:]...)
	return out, nil
}

// Dump writes the resolved configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
