// Package window shows the overlay in a borderless, transparent,
// always-on-top desktop window.
package window

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/soar/periscope/internal/asset"
	"github.com/soar/periscope/internal/geom"
	"github.com/soar/periscope/internal/overlay"
)

// Options tweak the window. The zero value is the normal overlay setup.
type Options struct {
	// Decorated keeps the title bar and borders.
	Decorated bool
	Logger    *slog.Logger
}

// Run opens the window and redraws it every frame until ctx is cancelled or
// the user closes it. It must be called from the main goroutine.
func Run(ctx context.Context, r *overlay.Renderer, assets *asset.Cache, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	cfg := r.Config()
	w, h := cfg.WindowSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowDecorated(opts.Decorated)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetVsyncEnabled(true)
	ebiten.SetRunnableOnUnfocused(true)

	g := &game{
		ctx:      ctx,
		renderer: r,
		surface: &surface{
			assets: assets,
			source: src,
			images: make(map[string]*ebiten.Image),
			logger: logger.With("component", "window"),
		},
		clear:  cfg.ClearColor,
		width:  w,
		height: h,
	}

	logger.Info("Window opened", "width", w, "height", h, "title", cfg.Title)
	if err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{ScreenTransparent: true}); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

type game struct {
	ctx      context.Context
	renderer *overlay.Renderer
	surface  *surface
	clear    geom.Color
	width    int
	height   int
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(g.clear.NRGBA())
	g.surface.dst = screen
	g.renderer.Frame(g.surface)
	g.surface.dst = nil
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// surface implements overlay.Surface on an ebiten image.
type surface struct {
	dst    *ebiten.Image
	assets *asset.Cache
	source *text.GoTextFaceSource
	images map[string]*ebiten.Image
	logger *slog.Logger
}

func (s *surface) DrawImage(path string, pos geom.Vec2, scale float32) {
	img, ok := s.image(path)
	if !ok {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	op.GeoM.Translate(float64(pos.X), float64(pos.Y))
	op.Filter = ebiten.FilterLinear
	s.dst.DrawImage(img, op)
}

func (s *surface) image(path string) (*ebiten.Image, bool) {
	if img, ok := s.images[path]; ok {
		return img, true
	}
	src, ok := s.assets.Get(path)
	if !ok {
		return nil, false
	}
	img := ebiten.NewImageFromImage(src)
	s.images[path] = img
	s.logger.Debug("Image uploaded", "path", path)
	return img, true
}

func (s *surface) DrawText(value string, pos geom.Vec2, c geom.Color, size float32) {
	face := &text.GoTextFace{Source: s.source, Size: float64(size)}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(pos.X), float64(pos.Y))
	op.ColorScale.ScaleWithColor(c.NRGBA())
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	text.Draw(s.dst, value, face, op)
}

func (s *surface) DrawRect(pos, size geom.Vec2, fill geom.Color, stroke geom.Stroke) {
	if fill.Visible() {
		vector.DrawFilledRect(s.dst, pos.X, pos.Y, size.X, size.Y, fill.NRGBA(), true)
	}
	if stroke.Visible() {
		vector.StrokeRect(s.dst, pos.X, pos.Y, size.X, size.Y, stroke.Width, stroke.Color.NRGBA(), true)
	}
}

func (s *surface) DrawCircle(center geom.Vec2, radius float32, fill geom.Color, stroke geom.Stroke) {
	if fill.Visible() {
		vector.DrawFilledCircle(s.dst, center.X, center.Y, radius, fill.NRGBA(), true)
	}
	if stroke.Visible() {
		vector.StrokeCircle(s.dst, center.X, center.Y, radius, stroke.Width, stroke.Color.NRGBA(), true)
	}
}

var _ overlay.Surface = (*surface)(nil)
