package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rohit0110/pact/internal/pact"
	"github.com/rohit0110/pact/internal/storage"
)

// Server represents the HTTP API server
// Exposes the pact lifecycle, read views, health and Prometheus metrics
type Server struct {
	httpServer *http.Server
	router     chi.Router
	engine     *pact.Engine
	store      storage.Store
	activities storage.ActivityRepository
	port       int
}

// NewServer creates a new API server instance
// The store is only used for health checks; every mutation goes through the engine
func NewServer(port int, engine *pact.Engine, store storage.Store, activities storage.ActivityRepository) *Server {
	router := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:     router,
		engine:     engine,
		store:      store,
		activities: activities,
		port:       port,
	}

	// Register all HTTP routes
	s.registerRoutes()

	return s
}

// Handler returns the routed handler, used by tests and embedding servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, "Endpoint not found", http.StatusNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// Core endpoints
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.handleMetrics())

	// Pact endpoints
	s.router.Route("/pacts", func(r chi.Router) {
		r.Get("/", s.handleListPacts)
		r.Post("/", s.handleCreatePact)

		r.Route("/{pact}", func(r chi.Router) {
			r.Get("/", s.handleGetPact)
			r.Get("/participants", s.handleListParticipants)
			r.Get("/activity", s.handleListActivity)

			r.Post("/join", s.handleJoin)
			r.Post("/stake", s.handleStake)
			r.Post("/activate", s.handleActivate)
			r.Post("/eliminations", s.handleElimination)
			r.Post("/complete", s.handleComplete)
			r.Post("/cancel", s.handleCancel)
		})
	})

	// Custody accounts
	s.router.Get("/accounts/{account}", s.handleGetAccount)
	s.router.Post("/accounts/{account}/deposit", s.handleDeposit)

	// Profiles
	s.router.Post("/profiles", s.handleCreateProfile)
	s.router.Get("/profiles/{owner}", s.handleGetProfile)
}

// Start starts the HTTP server in a goroutine
// Returns immediately after starting the server
func (s *Server) Start() error {
	go func() {
		slog.Info("🌐 API server starting",
			"port", s.port,
			"endpoints", []string{"/", "/health", "/metrics", "/pacts"},
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
