package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"browsercov/api"
	"browsercov/app"
	"browsercov/internal"
	"browsercov/internal/config"
	"browsercov/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Coverage *app.CoverageService
	UI       *ui.Server
	API      *api.Server
}

// New wires the coverage service and both HTTP front ends
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	rules, err := app.RulesFromFile(cfg.Ingest.RulesFile)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Coverage: app.NewCoverageService(rules, cfg.Ingest.Columns, logger),
	}

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	c.UI, err = ui.NewServer(c.Coverage, ui.Options{
		DefaultThreshold: cfg.Coverage.Threshold,
		DefaultSort:      cfg.Coverage.Sort,
		MaxUploadBytes:   cfg.Ingest.MaxUploadBytes(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create UI server: %w", err)
	}
	c.API = api.NewServer(c.Coverage, api.Config{
		DefaultThreshold: cfg.Coverage.Threshold,
		DefaultSort:      cfg.Coverage.Sort,
		MaxUploadBytes:   cfg.Ingest.MaxUploadBytes(),
	}, logger)

	return c, nil
}

// Preload loads DATA_FILE, when configured, before the servers accept requests
func (c *Container) Preload(ctx context.Context) error {
	if c.Config.Ingest.DataFile == "" {
		return nil
	}
	_, err := c.Coverage.LoadFile(ctx, c.Config.Ingest.DataFile)
	return err
}

// Run serves the UI and API until ctx is cancelled or either server fails
func (c *Container) Run(ctx context.Context) error {
	return c.Serve(ctx, c.UIHTTPServer(), c.APIHTTPServer())
}

// UIHTTPServer binds the HTML front end to UI_PORT
func (c *Container) UIHTTPServer() *http.Server {
	return newHTTPServer(c.Config.Server.UIPort, c.UI.Handler())
}

// APIHTTPServer binds the JSON API to API_PORT
func (c *Container) APIHTTPServer() *http.Server {
	return newHTTPServer(c.Config.Server.APIPort, c.API.Handler())
}

// Serve runs the servers until ctx is cancelled or one of them fails
func (c *Container) Serve(ctx context.Context, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			c.Logger.Info("[Container] Listening on http://localhost%s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return c.Shutdown(servers...)
	})

	return g.Wait()
}

// Shutdown gracefully stops the given servers within the configured timeout
func (c *Container) Shutdown(servers ...*http.Server) error {
	timeout := c.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}
	c.Logger.Info("[Container] Servers stopped")
	return stderrors.Join(errs...)
}

func newHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
