package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"browsercov/app"
	"browsercov/domain/usage"
	"browsercov/internal"
)

const exportCSV = `# Audience: All users
Browser,Operating System,Browser Version,Users
Chrome,Windows,10.0,"1,000"
Firefox,Windows,10.2,500
Safari,iOS,16.4.2,300
Safari,Macintosh,15.1,200
`

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	logger := internal.NewLoggerTo(internal.LogLevelError, io.Discard)
	svc := app.NewCoverageService(usage.DefaultRules(), "auto", logger)
	return NewServer(svc, cfg, logger)
}

func do(s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAPI_NothingLoaded(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	for _, path := range []string{"/api/datasets/current", "/api/browsers", "/api/coverage", "/api/coverage.xlsx"} {
		rec := do(s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code, path)
	}
}

func TestAPI_LoadAndQuery(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := do(s, http.MethodPost, "/api/datasets?name=audience.csv", strings.NewReader(exportCSV), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var dataset app.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dataset))
	assert.Equal(t, "audience.csv", dataset.Name)
	assert.Equal(t, 2000.0, dataset.Summary.TotalUsers)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	rec = do(s, http.MethodGet, "/api/datasets/current", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var current app.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, dataset.ID, current.ID)

	rec = do(s, http.MethodGet, "/api/datasets/"+dataset.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, http.MethodGet, "/api/datasets/0190a5b2-7c1e-7000-8000-000000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(s, http.MethodGet, "/api/datasets/nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/api/browsers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var browsers browsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &browsers))
	var names []string
	for _, b := range browsers.Browsers {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Chrome", "Firefox", "Safari iOS", "Safari Mac"}, names)

	rec = do(s, http.MethodGet, "/api/coverage?threshold=70&sort=name", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cov struct {
		DatasetID       string          `json:"dataset_id"`
		Selection       usage.Selection `json:"selection"`
		CoveragePercent float64         `json:"coverage_percent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cov))
	assert.Equal(t, dataset.ID.String(), cov.DatasetID)
	require.Len(t, cov.Selection.Selected, 2)
	assert.Equal(t, "Chrome", cov.Selection.Selected[0].Name)
	assert.Equal(t, "Firefox", cov.Selection.Selected[1].Name)
	assert.Equal(t, usage.SortByName, cov.Selection.Sort)
	assert.InDelta(t, 75.0, cov.CoveragePercent, 1e-9)
}

func TestAPI_DefaultsAndValidation(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/api/datasets", strings.NewReader(exportCSV), "").Code)

	rec := do(s, http.MethodGet, "/api/coverage", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cov coverageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cov))
	assert.Equal(t, 95.0, cov.Selection.Threshold)
	assert.Equal(t, usage.SortByUsage, cov.Selection.Sort)
	assert.Len(t, cov.Selection.Selected, 4)

	for _, q := range []string{"threshold=abc", "threshold=-1", "threshold=100.01", "sort=vendor"} {
		rec := do(s, http.MethodGet, "/api/coverage?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code, q)
	}
}

func TestAPI_UploadTooLarge(t *testing.T) {
	s := newTestServer(t, Config{DefaultThreshold: 95, DefaultSort: "usage", MaxUploadBytes: 32})

	rec := do(s, http.MethodPost, "/api/datasets", strings.NewReader(exportCSV), "text/csv")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "TOO_LARGE", decodeError(t, rec).Code)
}

func TestAPI_UnreadableWorkbook(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := do(s, http.MethodPost, "/api/datasets?name=export.xlsx", strings.NewReader("not a zip archive"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestAPI_XLSXRoundTrip(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Browser", "Operating system", "Browser version", "Total users"},
		{"Chrome", "Android", "118.0.5993.88", 600},
		{"Safari", "iOS", "16.4.2", 400},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var upload bytes.Buffer
	require.NoError(t, f.Write(&upload))
	require.NoError(t, f.Close())

	rec := do(s, http.MethodPost, "/api/datasets", &upload, xlsxContentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var dataset app.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dataset))
	assert.Equal(t, "upload.xlsx", dataset.Name)
	assert.Equal(t, usage.GA4Columns, dataset.Columns)

	rec = do(s, http.MethodGet, "/api/coverage.xlsx?threshold=50", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")

	out, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer out.Close()
	sheet, err := out.GetRows("Coverage")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sheet), 2)
	assert.Equal(t, []string{"Browser", "Version", "Users", "Share %"}, sheet[0])
	assert.Equal(t, "Chrome", sheet[1][0])
	assert.Equal(t, "118", sheet[1][1])
}

func TestUploadName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/datasets?name=../../etc/export.xlsx", nil)
	assert.Equal(t, "export.xlsx", uploadName(req))

	req = httptest.NewRequest(http.MethodPost, "/api/datasets", nil)
	assert.Equal(t, "upload.csv", uploadName(req))
}
