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

	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/internal/events"
	"github.com/pratamalabs/sahamflow/internal/modules/articles"
	"github.com/pratamalabs/sahamflow/internal/modules/outlook"
	"github.com/pratamalabs/sahamflow/internal/modules/pipeline"
	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
	"github.com/pratamalabs/sahamflow/internal/modules/tracker"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger
	DB      *database.DB

	Articles        *articles.Handler
	Recommendations *recommendations.Handler
	Tracker         *tracker.Handler
	Outlook         *outlook.Handler
	Pipeline        *pipeline.Handler
	Events          *events.Manager
	LogStream       *logger.Broadcaster
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	db      *database.DB
	events  *events.Manager
	stream  *logger.Broadcaster
	started time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		db:      cfg.DB,
		events:  cfg.Events,
		stream:  cfg.LogStream,
		started: time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

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
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", cfg.Recommendations.HandleList)
			r.Get("/active", cfg.Recommendations.HandleActive)
		})

		r.Get("/predictions", cfg.Tracker.HandlePredictions)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/recent", cfg.Articles.HandleRecent)
		})

		r.Route("/outlook", func(r chi.Router) {
			r.Get("/latest", cfg.Outlook.HandleLatest)
		})

		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/refresh", cfg.Pipeline.HandleRefresh)
			r.Get("/runs", cfg.Pipeline.HandleRuns)
		})

		r.Get("/events/recent", s.handleRecentEvents)
		r.Get("/logs/stream", s.handleLogStream)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
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
