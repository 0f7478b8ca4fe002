// Package api exposes the navigator over HTTP for bot control loops running
// out of process, and accepts live world state from the emulator bridge
// over a WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/udisondev/pokenav/internal/config"
	"github.com/udisondev/pokenav/internal/nav"
	"github.com/udisondev/pokenav/internal/worldstate"
)

const shutdownTimeout = 5 * time.Second

// Server routes API requests to a navigation engine.
type Server struct {
	cfg      config.Server
	engine   *nav.Engine
	feed     *worldstate.Feed
	defaults nav.PathOptions
	router   *mux.Router
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewServer creates a server and registers its routes. defaults apply to
// path requests that leave options unset.
func NewServer(cfg config.Server, engine *nav.Engine, feed *worldstate.Feed, defaults nav.PathOptions) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		feed:     feed,
		defaults: defaults,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// The bridge runs next to the emulator, not in a browser.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/ws/state", s.handleStateStream)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/maps", s.handleListMaps).Methods(http.MethodGet)
	api.HandleFunc("/maps/{group:[0-9]+}/{number:[0-9]+}", s.handleGetMap).Methods(http.MethodGet)
	api.HandleFunc("/path", s.handlePath).Methods(http.MethodPost)
	api.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	slog.Info("api server stopped")
	return nil
}
