package container

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browsercov/internal"
	"browsercov/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	cfg.Server.UIPort = "0"
	cfg.Server.APIPort = "0"
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(internal.LogLevelError, io.Discard)
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	c, err := New(testConfig(), quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, c.Coverage)
	assert.NotNil(t, c.UI)
	assert.NotNil(t, c.API)

	rec := httptest.NewRecorder()
	c.UI.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c.API.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/coverage", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_BadRulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Ingest.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(cfg, quietLogger())
	assert.Error(t, err)
}

func TestPreload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Browser,Operating System,Browser Version,Users\nChrome,Windows,120.0,10\n"), 0o644))

	cfg := testConfig()
	cfg.Ingest.DataFile = path
	c, err := New(cfg, quietLogger())
	require.NoError(t, err)
	require.NoError(t, c.Preload(context.Background()))

	dataset, err := c.Coverage.Current()
	require.NoError(t, err)
	assert.Equal(t, 10.0, dataset.Summary.TotalUsers)
}

func TestRunStopsOnCancel(t *testing.T) {
	c, err := New(testConfig(), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
