package app

import (
	"bufio"
	"bytes"
	"context"
	"image/png"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/soar/periscope/internal/asset"
	"github.com/soar/periscope/internal/overlay"
)

const overlayConfig = `
scale = 1
size = { x = 40, y = 20 }
clear_color = "000000FF"

[[controllers]]
id = 0
layout = "pad"
position = [0, 0]

[[layouts]]
name = "pad"

[[layouts.items]]
type = "rectangle"
size = [10, 10]
fill_color = "FF0000FF"
position = [0, 0]
if = ["ButtonA"]
`

// serveControllers answers every request byte with response until the
// listener is closed.
func serveControllers(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					if _, err := r.ReadByte(); err != nil {
						return
					}
					if _, err := conn.Write([]byte(response)); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func memFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/overlay.toml", []byte(overlayConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func noWindow(t *testing.T) WindowFunc {
	return func(context.Context, *overlay.Renderer, *asset.Cache, bool, *slog.Logger) error {
		t.Error("window opened")
		return nil
	}
}

func untilDone(ctx context.Context, _ *overlay.Renderer, _ *asset.Cache, _ bool, _ *slog.Logger) error {
	<-ctx.Done()
	return nil
}

func TestMainUsage(t *testing.T) {
	var stderr bytes.Buffer
	if code := Main(nil, &stderr, memFS(t), noWindow(t)); code != ExitUsage {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: periscope") {
		t.Fatalf("no usage printed: %s", stderr.String())
	}

	stderr.Reset()
	if code := Main([]string{"localhost"}, &stderr, memFS(t), noWindow(t)); code != ExitUsage {
		t.Fatalf("one positional: exit = %d", code)
	}
	if code := Main([]string{"-h"}, &stderr, memFS(t), noWindow(t)); code != ExitOK {
		t.Fatalf("help: exit = %d", code)
	}
}

func TestMainRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"log level", []string{"--log-level", "loud", "localhost", "/overlay.toml"}, ExitUsage},
		{"timeout", []string{"--timeout", "0s", "localhost", "/overlay.toml"}, ExitUsage},
		{"scheme", []string{"ftp://localhost", "/overlay.toml"}, ExitUsage},
		{"missing config", []string{"localhost", "/missing.toml"}, ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := Main(tt.args, &stderr, memFS(t), noWindow(t)); code != tt.want {
				t.Fatalf("exit = %d, want %d\n%s", code, tt.want, stderr.String())
			}
		})
	}
}

func TestMainSnapshot(t *testing.T) {
	addr := serveControllers(t, `[{"id":0,"c":1,"bs":1,"ls":{"x":0,"y":0},"rs":{"x":0,"y":0}}]`)
	fs := memFS(t)

	var stderr bytes.Buffer
	code := Main([]string{"--snapshot", "/out.png", addr, "/overlay.toml"}, &stderr, fs, noWindow(t))
	if code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, stderr.String())
	}

	data, err := afero.ReadFile(fs, "/out.png")
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, _, _ := img.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 0 {
		t.Fatalf("A is held but the red box is missing: r=%d g=%d", r>>8, g>>8)
	}
	if r, _, _, _ := img.At(30, 5).RGBA(); r != 0 {
		t.Fatalf("background r=%d", r>>8)
	}
}

func TestMainConnectFailureExitsWithError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	done := make(chan int, 1)
	go func() {
		var stderr bytes.Buffer
		done <- Main([]string{"--timeout", "1s", addr, "/overlay.toml"}, &stderr, memFS(t), untilDone)
	}()
	select {
	case code := <-done:
		if code != ExitError {
			t.Fatalf("exit = %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("overlay kept running without a controller server")
	}
}

func TestMainWindowClosed(t *testing.T) {
	addr := serveControllers(t, `[]`)
	var rendered bool
	show := func(ctx context.Context, r *overlay.Renderer, _ *asset.Cache, decorated bool, _ *slog.Logger) error {
		rendered = r.Config().Title == "Periscope" && !decorated
		return nil
	}
	var stderr bytes.Buffer
	if code := Main([]string{addr, "/overlay.toml"}, &stderr, memFS(t), show); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, stderr.String())
	}
	if !rendered {
		t.Fatal("window not shown with the loaded configuration")
	}
}

func TestParseOptionsFromEnvironment(t *testing.T) {
	t.Setenv("PERISCOPE_LOG_LEVEL", "debug")
	t.Setenv("PERISCOPE_MIRROR", ":9000")

	var stderr bytes.Buffer
	opts, err := parseOptions([]string{"--reconnect", "--mirror", ":8081", "ws://pad/state", "overlay.yaml"}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	if opts.LogLevel != "debug" || !opts.Reconnect || opts.Timeout != 5*time.Second {
		t.Fatalf("opts = %+v", opts)
	}
	// An explicit flag beats the environment.
	if opts.Mirror != ":8081" {
		t.Fatalf("mirror = %q", opts.Mirror)
	}
	if opts.Address != "ws://pad/state" || opts.ConfigPath != "overlay.yaml" {
		t.Fatalf("positionals = %q %q", opts.Address, opts.ConfigPath)
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"ERROR": LogLevelError, "warning": LogLevelWarn, "info": LogLevelInfo, "Debug": LogLevelDebug} {
		if got, err := parseLogLevel(in); err != nil || got != want {
			t.Errorf("parseLogLevel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Error("verbose accepted")
	}
}
