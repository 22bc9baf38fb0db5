// Package server provides a read-only HTTP inspection API that runs
// alongside the interactive menu: health, cache contents, system load
// and per-ticker technical reports.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"pricemovers/internal/analysis"
	"pricemovers/internal/cache"
)

// Config holds server configuration.
type Config struct {
	Log     zerolog.Logger
	Service *analysis.Service
	Store   *cache.Store
	Port    int
	DevMode bool
}

// Server is the HTTP inspection server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	handlers *Handlers
	port     int
}

// New creates the HTTP server with middleware and routes configured.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("service", "server").Logger(),
		handlers: NewHandlers(cfg.Service, cfg.Store, cfg.Log),
		port:     cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handlers.HandleHealth)
		r.Get("/cache/keys", s.handlers.HandleCacheKeys)
		r.Delete("/cache", s.handlers.HandleCacheClear)
		r.Delete("/cache/{key}", s.handlers.HandleCacheDelete)
		r.Get("/system/status", s.handlers.HandleSystemStatus)
		r.Get("/analysis/{ticker}", s.handlers.HandleAnalysis)
	})
}

// Router exposes the chi mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
