package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/price-relay/internal/config"
	"github.com/rickgao/price-relay/internal/hub"
)

// Server accepts client WebSocket connections and hands each one to the hub
// as a session.
type Server struct {
	cfg      config.ServerConfig
	relay    config.RelaySettings
	hub      *hub.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a server.
func New(cfg config.ServerConfig, relay config.RelaySettings, h *hub.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:    cfg,
		relay:  relay,
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local UI clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("client server listening", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleWS upgrades the connection and starts a session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := newSession(conn, s.hub, s.cfg, s.relay.ClientQueueSize, s.logger)
	s.hub.Register(sess)
	sess.start()
}

// handleHealth reports relay health as JSON.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.hub.Stats()

	health := struct {
		Status        string   `json:"status"`
		ActiveClients int      `json:"active_clients"`
		OpenFeeds     int      `json:"open_feeds"`
		Symbols       []string `json:"symbols"`
	}{
		Status:        "healthy",
		ActiveClients: stats.Clients,
		OpenFeeds:     stats.OpenFeeds,
		Symbols:       stats.Symbols,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
