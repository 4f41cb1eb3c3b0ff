package api

import (
	"context"
	"io"
	"net/http"

	"battle-board/internal/battle"
	"battle-board/internal/replay"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// BoardInterface defines the board host methods used by the API.
// This interface enables mocking for tests without running the scheduler loop.
type BoardInterface interface {
	// Snapshot returns the latest immutable board snapshot
	Snapshot() *battle.Snapshot
	// Session returns the replay session state
	Session() replay.State
	// ReplayEntry resolves one log entry by id
	ReplayEntry(ctx context.Context, id string) error
	// PlayAll starts a full replay; false when one is already playing
	PlayAll(ctx context.Context) (bool, error)
	// Resize changes the board viewport
	Resize(ctx context.Context, width, height float64) error
	// Pin pins a team on the info panel
	Pin(ctx context.Context, team string) error
}

// RendererInterface draws snapshots for the PNG endpoint
type RendererInterface interface {
	EncodePNG(w io.Writer, snap *battle.Snapshot) error
}

// DefaultCORSOrigins are used when RouterConfig.CORSOrigins is nil
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// RouterConfig wires the router. Only Board is required; tests pass a mock
// board and a generous RateLimitConfig and serve the result with httptest.
type RouterConfig struct {
	Board BoardInterface

	// Renderer draws /api/board.png; nil answers 503
	Renderer RendererInterface

	// RateLimiter is shared with the caller when set. Otherwise one is built
	// from RateLimitConfig, or DefaultRateLimitConfig when that is nil too.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to DefaultCORSOrigins
	CORSOrigins []string

	// AdminToken guards the mutating routes when set
	AdminToken string

	// StaticFilesDir is the board viewer directory. Defaults to "./web".
	StaticFilesDir string

	DisableLogging bool
}

// routerHandlers holds the handler functions for the router
type routerHandlers struct {
	board    BoardInterface
	renderer RendererInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// The router is pure: no listeners are opened and the only goroutine started
// is the rate limiter cleanup when no RateLimiter is passed in.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Logger and Recoverer wrap everything, metrics see the final status
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Limit before CORS so floods are dropped first
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		board:    cfg.Board,
		renderer: cfg.Renderer,
	}
	auth := NewTokenAuth(cfg.AdminToken)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Board state
		r.Get("/board", h.handleGetBoard)
		r.Get("/board.png", h.handleBoardPNG)
		r.Get("/logs", h.handleGetLogs)
		r.Get("/panel", h.handleGetPanel)

		// Playback and interaction
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Post("/logs/{id}/replay", h.handleReplayEntry)
			r.Post("/replay/all", h.handleReplayAll)
			r.Post("/viewport", h.handleViewport)
			r.Post("/teams/{name}/pin", h.handlePin)
		})
	})

	// Board viewer
	staticDir := cfg.StaticFilesDir
	if staticDir == "" {
		staticDir = "./web"
	}
	r.Handle("/board/*", http.StripPrefix("/board/", http.FileServer(http.Dir(staticDir))))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/board/", http.StatusFound)
	})

	return r
}
