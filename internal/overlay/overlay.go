// Package overlay decides, once per frame, which items are active and where
// they go, then hands them to a drawing Surface.
package overlay

import (
	"github.com/soar/periscope/internal/condition"
	"github.com/soar/periscope/internal/config"
	"github.com/soar/periscope/internal/gamepad"
	"github.com/soar/periscope/internal/geom"
)

// Surface paints primitives. Positions and sizes arrive already scaled.
type Surface interface {
	// DrawImage draws the asset at path with its top-left at pos and its
	// natural size multiplied by scale. Unloadable assets are skipped.
	DrawImage(path string, pos geom.Vec2, scale float32)
	// DrawText draws value centred on pos.
	DrawText(value string, pos geom.Vec2, c geom.Color, size float32)
	DrawRect(pos, size geom.Vec2, fill geom.Color, stroke geom.Stroke)
	DrawCircle(center geom.Vec2, radius float32, fill geom.Color, stroke geom.Stroke)
}

// Placement is an active item and its final, scaled position.
type Placement struct {
	Item *config.Item
	Pos  geom.Vec2
}

// Plan selects the active items for one frame. Global items come first,
// then each controller binding in configuration order. Bindings whose
// controller has no snapshot contribute nothing. buf is reused.
func Plan(cfg *config.Config, batch *gamepad.Batch, buf []Placement) []Placement {
	buf = buf[:0]

	global := condition.GlobalSet(batch.Controllers)
	for i := range cfg.Items {
		it := &cfg.Items[i]
		if condition.Active(global, it.Conditions) {
			buf = append(buf, Placement{Item: it, Pos: it.Position.Scale(cfg.Scale)})
		}
	}

	for ci := range cfg.Controllers {
		c := &cfg.Controllers[ci]
		snap, ok := batch.Find(c.ID)
		if !ok {
			continue
		}
		active := condition.ControllerSet(snap, cfg.StickDeadzone)

		items := c.Layout().Items
		for i := range items {
			it := &items[i]
			if !condition.Active(active, it.Conditions) {
				continue
			}
			pos := c.Position.Add(it.Position).Scale(cfg.Scale)
			pos = pos.Add(Displacement(it.Modifier, snap, cfg.Scale))
			buf = append(buf, Placement{Item: it, Pos: pos})
		}
	}

	return buf
}

// Displacement is the stick-driven offset of an item. Full deflection moves
// it by Range*scale; screen Y grows downwards, so stick Y is negated. Readings
// past full deflection are not clamped.
func Displacement(m *config.PositionModifier, snap gamepad.Snapshot, scale float32) geom.Vec2 {
	if m == nil {
		return geom.Vec2{}
	}
	var stick gamepad.Stick
	switch m.Stick {
	case config.StickLeft:
		stick = snap.Left
	case config.StickRight:
		stick = snap.Right
	default:
		return geom.Vec2{}
	}
	k := m.Range * scale / gamepad.MaxAxis
	return geom.V(k*stick.X, -k*stick.Y)
}

// Draw paints placements in order.
func Draw(s Surface, scale float32, placements []Placement) {
	for _, p := range placements {
		drawItem(s, scale, p.Item.Visual, p.Pos)
	}
}

func drawItem(s Surface, scale float32, v config.Visual, pos geom.Vec2) {
	switch v := v.(type) {
	case config.Image:
		s.DrawImage(v.Path, pos, scale)
	case config.Text:
		s.DrawText(v.Value, pos, v.Color, v.Size*scale)
	case config.Rectangle:
		s.DrawRect(pos, v.Size.Scale(scale), v.Fill, v.Stroke.Scale(scale))
	case config.Circle:
		// pos is the top-left of the circle's bounding box.
		r := v.Radius * scale
		s.DrawCircle(pos.Add(geom.V(r, r)), r, v.Fill, v.Stroke.Scale(scale))
	}
}

// Renderer draws frames from the latest state in a Store.
type Renderer struct {
	cfg   *config.Config
	store *gamepad.Store
	buf   []Placement
}

func NewRenderer(cfg *config.Config, store *gamepad.Store) *Renderer {
	return &Renderer{cfg: cfg, store: store}
}

func (r *Renderer) Config() *config.Config {
	return r.cfg
}

// Frame reads the store once and draws everything active in that view.
func (r *Renderer) Frame(s Surface) {
	r.buf = Plan(r.cfg, r.store.Load(), r.buf)
	Draw(s, r.cfg.Scale, r.buf)
}
