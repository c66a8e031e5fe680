package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/soar/periscope/internal/app"
	"github.com/soar/periscope/internal/asset"
	"github.com/soar/periscope/internal/overlay"
	"github.com/soar/periscope/internal/window"
)

func main() {
	os.Exit(app.Main(os.Args[1:], os.Stderr, afero.NewOsFs(), runWindow))
}

func runWindow(ctx context.Context, r *overlay.Renderer, assets *asset.Cache, decorated bool, logger *slog.Logger) error {
	return window.Run(ctx, r, assets, window.Options{Decorated: decorated, Logger: logger})
}
