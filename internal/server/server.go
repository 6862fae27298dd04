// Package server provides the HTTP server and routing for lcdash.
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

	"github.com/aristath/lcdash/internal/modules/catalog"
	dashboardhandlers "github.com/aristath/lcdash/internal/modules/dashboard/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Dashboard *dashboardhandlers.Handler
	System    *SystemHandlers
	Catalog   *catalog.Catalog
	Backend   string
	Port      int
	DevMode   bool
	// TokenHeader is allowed through CORS so browsers can forward it
	TokenHeader string
	// AllowedOrigins enables CORS for these origins. Empty means same-origin only.
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	port      int
	dashboard *dashboardhandlers.Handler
	system    *SystemHandlers
	catalog   *catalog.Catalog
	backend   string
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		dashboard: cfg.Dashboard,
		system:    cfg.System,
		catalog:   cfg.Catalog,
		backend:   cfg.Backend,
	}

	s.setupMiddleware(cfg.DevMode, cfg.TokenHeader, cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, tokenHeader string, allowedOrigins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS for listed origins only; cors treats an empty list as "*"
	if len(allowedOrigins) > 0 {
		allowedHeaders := []string{"Accept", "Authorization", "Content-Type"}
		if tokenHeader != "" {
			allowedHeaders = append(allowedHeaders, tokenHeader)
		}

		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   allowedHeaders,
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived websocket sessions stay outside the request timeout
		if s.dashboard != nil {
			s.dashboard.RegisterStreamRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			if s.system != nil {
				r.Get("/system/status", s.system.HandleSystemStatus)
			}
			if s.dashboard != nil {
				s.dashboard.RegisterRoutes(r)
			}
		})
	})
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
