// Package api serves graph views, tables and exports over HTTP for an
// external network renderer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/c360studio/semview/service"
)

// ExportNoteHeader explains that exports over-include neighbouring statements.
const ExportNoteHeader = "X-Semview-Export-Note"

// DefaultMaxBodySize bounds uploaded documents.
const DefaultMaxBodySize = 32 << 20

// Config configures a Server.
type Config struct {
	Service *service.Service

	// CORSOrigins lists allowed origins; empty allows any.
	CORSOrigins []string
	MaxBodySize int64

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// Observer measures requests. Optional.
	Observer HTTPObserver

	Logger *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	svc         *service.Service
	validate    *validator.Validate
	corsOrigins []string
	maxBodySize int64
	metrics     http.Handler
	observer    HTTPObserver
	logger      *slog.Logger
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	return &Server{
		svc:         cfg.Service,
		validate:    validator.New(),
		corsOrigins: cfg.CORSOrigins,
		maxBodySize: cfg.MaxBodySize,
		metrics:     cfg.Metrics,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger, s.observer))

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, ExportNoteHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/fetch", s.handleFetch)
		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleUpload)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleInfo)
				r.Delete("/", s.handleDelete)
				r.Get("/view", s.handleView)
				r.Get("/nodes", s.handleNodes)
				r.Get("/nodes/detail", s.handleDetail)
				r.Get("/triples", s.handleTriples)
				r.Post("/export", s.handleExport)
			})
		})
	})

	return r
}
