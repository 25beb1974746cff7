package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ladder-mm/internal/config"
	"ladder-mm/pkg/types"
)

// Server runs the read-only HTTP/WebSocket status API.
type Server struct {
	cfg      config.DashboardConfig
	provider StateProvider
	fullCfg  config.Config
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
	done     chan struct{}
}

// NewServer creates a new API server.
func NewServer(
	cfg config.DashboardConfig,
	provider StateProvider,
	fullCfg config.Config,
	logger *slog.Logger,
) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(provider, fullCfg, hub, logger)

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)

	// Serve static files (web dashboard)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:      cfg,
		provider: provider,
		fullCfg:  fullCfg,
		hub:      hub,
		handlers: handlers,
		server:   server,
		logger:   logger.With("component", "api-server"),
		done:     make(chan struct{}),
	}
}

// snapshotBroadcastInterval is how often connected clients receive a fresh
// snapshot push over the WebSocket, independent of the control loop's own
// event cadence.
const snapshotBroadcastInterval = 2 * time.Second

// Start starts the API server, the hub, and the periodic snapshot
// broadcaster.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.broadcastLoop()

	s.logger.Info("dashboard server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.logger.Info("stopping dashboard server")
	close(s.done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// BroadcastFill pushes a fill notification to every connected dashboard
// client as it happens, rather than waiting for it to be folded into the
// next periodic snapshot tick. The supervisor's event loop calls this
// directly from its KindOrderFill handling; the dashboard never subscribes
// to the event bus itself.
func (s *Server) BroadcastFill(f types.FillEvent) {
	s.hub.BroadcastFill(FillView{
		OrderID:   f.ID,
		Side:      string(f.Side),
		Price:     f.Price,
		CumQty:    f.CumQty,
		RemainQty: f.RemainQty,
		Status:    int(f.Status),
	})
}

// broadcastLoop periodically rebuilds the snapshot and pushes it to every
// connected client; the dashboard has no other way to learn of state
// changes since it never touches the control loop's event bus directly.
func (s *Server) broadcastLoop() {
	t := time.NewTicker(snapshotBroadcastInterval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.hub.BroadcastSnapshot(BuildSnapshot(s.provider, s.fullCfg))
		}
	}
}
