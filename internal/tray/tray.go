// Package tray puts an Exit entry in the Windows notification area.
package tray

import (
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Tray manages the system tray icon and menu
type Tray struct {
	title        string
	statusURL    string
	shutdownFunc ShutdownFunc
	logger       *slog.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a tray. statusURL may be empty, in which case no
// "Open status page" entry is shown.
func New(title, statusURL string, shutdownFn ShutdownFunc, logger *slog.Logger) *Tray {
	return &Tray{
		title:        title,
		statusURL:    statusURL,
		shutdownFunc: shutdownFn,
		logger:       logger.With("component", "tray"),
	}
}

// Supported reports whether the tray is shown on this platform.
func Supported() bool {
	return runtime.GOOS == "windows"
}

// Run initializes and runs the system tray (blocks until Stop or Exit)
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// Stop removes the tray icon without calling the shutdown function.
func (t *Tray) Stop() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle(t.title)
	tooltip := t.title
	if t.statusURL != "" {
		tooltip += " - " + t.statusURL
		t.menuOpen = systray.AddMenuItem("Open status page", "Open the state mirror in a browser")
	}
	t.menuExit = systray.AddMenuItem("Exit", "Close the overlay")
	systray.SetTooltip(tooltip)

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.logger.Debug("System tray initialized")
}

func (t *Tray) handleMenuClicks() {
	var openCh <-chan struct{}
	if t.menuOpen != nil {
		openCh = t.menuOpen.ClickedCh
	}
	for {
		select {
		case <-openCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Debug("System tray exiting")
}

func (t *Tray) openBrowser() {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", t.statusURL)
	case "darwin":
		cmd = exec.Command("open", t.statusURL)
	default:
		cmd = exec.Command("xdg-open", t.statusURL)
	}

	if err := cmd.Start(); err != nil {
		t.logger.Warn("Failed to open browser", "url", t.statusURL, "error", err)
	}
}
