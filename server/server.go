// Package server provides HTTP server management and lifecycle handling for
// the vignette resolution API. It includes server setup, middleware
// configuration, route management, and graceful shutdown capabilities with
// proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salahab839/prescription-api/config"
	"github.com/salahab839/prescription-api/handlers"
	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/logging"
	"github.com/salahab839/prescription-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server         *http.Server
	router         chi.Router
	catalogStore   interfaces.CatalogStore
	textExtractor  interfaces.TextExtractor
	fieldExtractor interfaces.FieldExtractor
	validator      interfaces.CatalogValidator
	healthChecker  interfaces.HealthChecker
	config         *config.Config
}

// NewServer creates a new server instance
func NewServer(
	cfg *config.Config,
	catalogStore interfaces.CatalogStore,
	textExtractor interfaces.TextExtractor,
	fieldExtractor interfaces.FieldExtractor,
	validator interfaces.CatalogValidator,
	healthChecker interfaces.HealthChecker,
) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler: router,
			Addr:    cfg.Address + ":" + cfg.Port,
			// Vignette uploads on slow mobile connections need generous timeouts
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:         router,
		catalogStore:   catalogStore,
		textExtractor:  textExtractor,
		fieldExtractor: fieldExtractor,
		validator:      validator,
		healthChecker:  healthChecker,
		config:         cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Resolution pipeline
	s.router.Post("/vignette", handlers.ProcessVignette(s.catalogStore, s.textExtractor, s.fieldExtractor))
	s.router.Post("/resolve", handlers.ResolveObservation(s.catalogStore))

	// Catalog browsing
	s.router.Get("/catalog/{pageNumber}", handlers.ServePagedCatalog(s.catalogStore))
	s.router.Get("/catalog/search/{name}", handlers.FindCatalogEntry(s.catalogStore, s.validator))

	// Operations
	s.router.Get("/health", handlers.HealthCheck(s.catalogStore, s.healthChecker))
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
