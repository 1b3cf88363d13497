package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"browsercov/app"
	"browsercov/internal"
	"browsercov/internal/config"
	"browsercov/internal/errors"
	"browsercov/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options controls form defaults and upload limits
type Options struct {
	DefaultThreshold float64
	DefaultSort      string
	MaxUploadBytes   int64
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		DefaultThreshold: config.DefaultThreshold,
		DefaultSort:      config.DefaultSort,
		MaxUploadBytes:   10 << 20,
	}
}

// Server is the HTML front end for exploring a loaded analytics export
type Server struct {
	router    *gin.Engine
	service   *app.CoverageService
	templates *template.Template
	opts      Options
	logger    *internal.Logger
}

// NewServer parses the embedded templates and registers routes
func NewServer(service *app.CoverageService, opts Options, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}

	funcMap := template.FuncMap{
		"users": report.Users,
		"percent": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v)
		},
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		templates: templates,
		opts:      opts,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.GET("/coverage", s.handleCoverage)
	s.router.GET("/healthz", s.handleHealth)
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// renderTemplate renders into a buffer first so a failing template never sends a partial page
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("[UI] Template error for %s: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[UI] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	s.renderTemplate(c, status, "error.html", gin.H{
		"Code":    errors.GetCode(err),
		"Message": err.Error(),
	})
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
