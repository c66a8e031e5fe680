package overlay

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/soar/periscope/internal/asset"
	"github.com/soar/periscope/internal/config"
	"github.com/soar/periscope/internal/gamepad"
	"github.com/soar/periscope/internal/geom"
)

// Raster is a Surface backed by an in-memory image. It needs no display.
type Raster struct {
	img     *image.RGBA
	assets  *asset.Cache
	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	stroker *rasterx.Stroker
	font    *opentype.Font
	faces   map[float32]font.Face
}

func NewRaster(width, height int, assets *asset.Cache) (*Raster, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	return &Raster{
		img:     img,
		assets:  assets,
		scanner: scanner,
		filler:  rasterx.NewFiller(width, height, scanner),
		stroker: rasterx.NewStroker(width, height, scanner),
		font:    f,
		faces:   make(map[float32]font.Face),
	}, nil
}

func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Clear fills the whole image with c, replacing what was there.
func (r *Raster) Clear(c geom.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
}

// WritePNG encodes the current image.
func (r *Raster) WritePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}

func (r *Raster) DrawImage(path string, pos geom.Vec2, scale float32) {
	src, ok := r.assets.Get(path)
	if !ok {
		return
	}
	b := src.Bounds()
	size := geom.V(float32(b.Dx()), float32(b.Dy())).Scale(scale)
	dst := image.Rect(
		round(pos.X), round(pos.Y),
		round(pos.X+size.X), round(pos.Y+size.Y),
	)
	draw.ApproxBiLinear.Scale(r.img, dst, src, b, draw.Over, nil)
}

func (r *Raster) DrawText(value string, pos geom.Vec2, c geom.Color, size float32) {
	face, err := r.face(size)
	if err != nil {
		return
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c.NRGBA()),
		Face: face,
	}
	m := face.Metrics()
	width := d.MeasureString(value)
	d.Dot = fixed.Point26_6{
		X: toFixed(pos.X) - width/2,
		Y: toFixed(pos.Y) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(value)
}

func (r *Raster) DrawRect(pos, size geom.Vec2, fill geom.Color, stroke geom.Stroke) {
	x0, y0 := float64(pos.X), float64(pos.Y)
	x1, y1 := float64(pos.X+size.X), float64(pos.Y+size.Y)

	if fill.Visible() {
		r.filler.Clear()
		rasterx.AddRect(x0, y0, x1, y1, 0, r.filler)
		r.filler.SetColor(fill.NRGBA())
		r.filler.Draw()
	}
	if stroke.Visible() {
		r.setStroke(stroke)
		rasterx.AddRect(x0, y0, x1, y1, 0, r.stroker)
		r.stroker.Draw()
	}
}

func (r *Raster) DrawCircle(center geom.Vec2, radius float32, fill geom.Color, stroke geom.Stroke) {
	cx, cy, rad := float64(center.X), float64(center.Y), float64(radius)

	if fill.Visible() {
		r.filler.Clear()
		rasterx.AddCircle(cx, cy, rad, r.filler)
		r.filler.SetColor(fill.NRGBA())
		r.filler.Draw()
	}
	if stroke.Visible() {
		r.setStroke(stroke)
		rasterx.AddCircle(cx, cy, rad, r.stroker)
		r.stroker.Draw()
	}
}

func (r *Raster) setStroke(s geom.Stroke) {
	r.stroker.Clear()
	r.stroker.SetStroke(toFixed(s.Width), toFixed(4), rasterx.ButtCap, nil, rasterx.RoundGap, rasterx.Miter)
	r.stroker.SetColor(s.Color.NRGBA())
}

func (r *Raster) face(size float32) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}

// Snapshot renders one frame for batch headlessly and writes it as PNG.
func Snapshot(w io.Writer, cfg *config.Config, batch *gamepad.Batch, assets *asset.Cache) error {
	width, height := cfg.WindowSize()
	r, err := NewRaster(width, height, assets)
	if err != nil {
		return err
	}
	r.Clear(cfg.ClearColor)
	Draw(r, cfg.Scale, Plan(cfg, batch, nil))
	return r.WritePNG(w)
}
