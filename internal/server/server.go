// Package server exposes the controller state over HTTP: a websocket
// stream, a JSON snapshot and a small status page.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soar/periscope/internal/gamepad"
	"github.com/soar/periscope/internal/hub"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	store       *gamepad.Store
	addr        string
	page        []byte
	logger      *slog.Logger
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, store *gamepad.Store, addr string, logger *slog.Logger) (*Server, error) {
	page, err := minifyPage(statusPage)
	if err != nil {
		return nil, err
	}
	s := &Server{
		hub:         h,
		broadcaster: b,
		store:       store,
		addr:        addr,
		page:        page,
		logger:      logger.With("component", "server"),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler routes the mirror endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

// ListenAndServe blocks until Shutdown. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// URL is the address of the status page.
func (s *Server) URL() string {
	host, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		return "http://" + s.addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
