// Package app wires the overlay together: configuration, the network
// reader, the optional state mirror and tray, and the window.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/soar/periscope/internal/asset"
	"github.com/soar/periscope/internal/config"
	"github.com/soar/periscope/internal/gamepad"
	"github.com/soar/periscope/internal/hub"
	"github.com/soar/periscope/internal/overlay"
	"github.com/soar/periscope/internal/server"
	"github.com/soar/periscope/internal/tray"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Cross-platform signal handling: os.Interrupt is Ctrl+C everywhere.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const shutdownTimeout = 5 * time.Second

// WindowFunc shows the overlay until ctx is done or the user closes it. It
// runs on the calling goroutine.
type WindowFunc func(ctx context.Context, r *overlay.Renderer, assets *asset.Cache, decorated bool, logger *slog.Logger) error

// Main runs the overlay and returns the process exit code. Files are read
// from and written to fs.
func Main(args []string, stderr io.Writer, fs afero.Fs, window WindowFunc) int {
	opts, err := parseOptions(args, stderr)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return ExitOK
	case errors.Is(err, errUsage):
		return ExitUsage
	case err != nil:
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	level, err := parseLogLevel(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	logger := setupLogger(level, stderr)

	dial, err := gamepad.Dialer(opts.Address, opts.Timeout)
	if err != nil {
		logger.Error("Invalid address", "address", opts.Address, "error", err)
		return ExitUsage
	}

	cfg, err := config.Load(fs, opts.ConfigPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return ExitError
	}
	logConfig(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	defer signal.Stop(sigCh)

	store := gamepad.NewStore()
	reader := gamepad.NewReader(store, dial, gamepad.ReaderOptions{
		Reconnect: opts.Reconnect,
		Logger:    logger,
	})
	assets := asset.NewCache(fs)

	var wg conc.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	readerErr := make(chan error, 1)
	wg.Go(func() {
		err := reader.Run(ctx)
		if err != nil && ctx.Err() == nil {
			readerErr <- err
			cancel()
		}
	})
	wg.Go(func() {
		select {
		case sig := <-sigCh:
			logger.Info("Shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	})

	if opts.Snapshot != "" {
		return snapshot(ctx, logger, opts.Snapshot, fs, cfg, reader, store, assets, readerErr)
	}

	var statusURL string
	if opts.Mirror != "" {
		srv, err := startMirror(ctx, &wg, logger, opts.Mirror, reader, store, cancel)
		if err != nil {
			logger.Error("Failed to start state mirror", "error", err)
			cancel()
			return ExitError
		}
		statusURL = srv.URL()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown error", "error", err)
			}
		}()
	}

	if tray.Supported() {
		t := tray.New(cfg.Title, statusURL, func() {
			logger.Info("Shutdown requested from tray")
			cancel()
		}, logger)
		wg.Go(func() { t.Run(tray.Icon()) })
		defer t.Stop()
	}

	logger.Info("Periscope started", "address", opts.Address, "config", opts.ConfigPath)
	if err := window(ctx, overlay.NewRenderer(cfg, store), assets, opts.Decorated, logger); err != nil {
		logger.Error("Window failed", "error", err)
		cancel()
		return ExitError
	}
	cancel()

	select {
	case err := <-readerErr:
		logger.Error("Controller connection failed", "error", err)
		return ExitError
	default:
	}
	logger.Info("Periscope stopped")
	return ExitOK
}

func logConfig(logger *slog.Logger, cfg *config.Config) {
	w, h := cfg.WindowSize()
	logger.Info("Configuration loaded",
		"controllers", len(cfg.Controllers),
		"layouts", len(cfg.Layouts),
		"items", len(cfg.Items),
		"window", fmt.Sprintf("%dx%d", w, h))

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var b strings.Builder
	if err := cfg.Dump(&b); err != nil {
		logger.Debug("Failed to dump configuration", "error", err)
		return
	}
	logger.Debug("Effective configuration\n" + b.String())
}

// snapshot waits for the first update, renders it headlessly and exits.
func snapshot(ctx context.Context, logger *slog.Logger, path string, fs afero.Fs, cfg *config.Config,
	reader *gamepad.Reader, store *gamepad.Store, assets *asset.Cache, readerErr <-chan error) int {
	select {
	case <-reader.Changes():
	case err := <-readerErr:
		logger.Error("Controller connection failed", "error", err)
		return ExitError
	case <-ctx.Done():
		select {
		case err := <-readerErr:
			logger.Error("Controller connection failed", "error", err)
			return ExitError
		default:
		}
		return ExitOK
	}

	batch := store.Load()
	f, err := fs.Create(path)
	if err != nil {
		logger.Error("Failed to create snapshot", "path", path, "error", err)
		return ExitError
	}
	if err := overlay.Snapshot(f, cfg, batch, assets); err != nil {
		f.Close()
		logger.Error("Failed to render snapshot", "path", path, "error", err)
		return ExitError
	}
	if err := f.Close(); err != nil {
		logger.Error("Failed to write snapshot", "path", path, "error", err)
		return ExitError
	}
	logger.Info("Snapshot written", "path", path, "seq", batch.Seq, "controllers", len(batch.Controllers))
	return ExitOK
}

func startMirror(ctx context.Context, wg *conc.WaitGroup, logger *slog.Logger, addr string,
	reader *gamepad.Reader, store *gamepad.Store, cancel context.CancelFunc) (*server.Server, error) {
	h := hub.NewHub(logger)
	broadcaster := hub.NewBroadcaster(h, reader.Changes(), logger)
	srv, err := server.New(h, broadcaster, store, addr, logger)
	if err != nil {
		return nil, err
	}

	wg.Go(func() { h.Run(ctx) })
	wg.Go(func() { broadcaster.Run(ctx) })
	wg.Go(func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	})
	return srv, nil
}
