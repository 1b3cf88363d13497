package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"browsercov/app"
	"browsercov/internal"
	"browsercov/internal/config"
	"browsercov/internal/errors"
)

// Config holds API defaults and limits
type Config struct {
	DefaultThreshold float64
	DefaultSort      string
	MaxUploadBytes   int64
}

// DefaultConfig mirrors the configuration defaults
func DefaultConfig() Config {
	return Config{
		DefaultThreshold: config.DefaultThreshold,
		DefaultSort:      config.DefaultSort,
		MaxUploadBytes:   10 << 20,
	}
}

// Server is the JSON API over the coverage service
type Server struct {
	router  *chi.Mux
	service *app.CoverageService
	config  Config
	logger  *internal.Logger
}

// NewServer creates the API router
func NewServer(service *app.CoverageService, cfg Config, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		config:  cfg,
		logger:  logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.New(s.logger.Writer(), "", log.LstdFlags), NoColor: true}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json"))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/datasets", s.handleLoadDataset)
		r.Get("/datasets/current", s.handleCurrentDataset)
		r.Get("/datasets/{id}", s.handleDataset)
		r.Get("/browsers", s.handleBrowsers)
		r.Get("/coverage", s.handleCoverage)
		r.Get("/coverage.xlsx", s.handleCoverageWorkbook)
	})
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("[API] Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		s.logger.Debug("[API] %s %s: %v", r.Method, r.URL.Path, err)
	}
	code := errors.GetCode(err)
	if !errors.IsAppError(err) {
		code = errors.CodeInternalError
	}
	s.writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: err.Error()},
	})
}
