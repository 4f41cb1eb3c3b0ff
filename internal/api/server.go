package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"battle-board/internal/config"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for live board state.
type Server struct {
	board       BoardInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates the API server.
//
// Background workers do NOT start until Start() is called. For testing HTTP
// endpoints without WebSocket support, use NewRouter() directly.
func NewServer(board BoardInterface, renderer RendererInterface, cfg config.ServerConfig) *Server {
	s := &Server{
		board:       board,
		wsHub:       NewWebSocketHub(cfg.CORSOrigins),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Board:       board,
		Renderer:    renderer,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	if cfg.AdminToken != "" {
		log.Println("🔐 Operator routes require BOARD_ADMIN_TOKEN")
	} else {
		log.Println("⚠️ Operator routes are open (set BOARD_ADMIN_TOKEN to protect them)")
	}
	return s
}

// Start starts the hub workers and serves until Shutdown.
// Returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.board)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 Board viewer: http://localhost%s/board/", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, then stops the hub and rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
