package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"browsercov/adapters/excel"
	"browsercov/app"
	"browsercov/domain/usage"
	"browsercov/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleLoadDataset replaces the current dataset with the request body.
// The name query parameter picks the file type; XLSX bodies may instead
// be flagged by Content-Type.
func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.config.MaxUploadBytes {
		s.writeError(w, r, errors.TooLarge(fmt.Sprintf("body exceeds %d bytes", s.config.MaxUploadBytes)))
		return
	}
	body := http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.TooLarge(fmt.Sprintf("body exceeds %d bytes", s.config.MaxUploadBytes)))
			return
		}
		s.writeError(w, r, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read body")))
		return
	}

	dataset, err := s.service.LoadBytes(r.Context(), uploadName(r), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, dataset)
}

func uploadName(r *http.Request) string {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		return filepath.Base(name)
	}
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == xlsxContentType {
		return "upload.xlsx"
	}
	return "upload.csv"
}

func (s *Server) handleCurrentDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.service.Current()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dataset)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.service.Dataset(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dataset)
}

type browsersResponse struct {
	DatasetID string          `json:"dataset_id"`
	Browsers  []usage.Browser `json:"browsers"`
}

func (s *Server) handleBrowsers(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.service.Current()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, browsersResponse{
		DatasetID: dataset.ID.String(),
		Browsers:  dataset.Browsers,
	})
}

type coverageResponse struct {
	*app.CoverageReport
	CoveragePercent float64 `json:"coverage_percent"`
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	rep, err := s.coverage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, coverageResponse{
		CoverageReport:  rep,
		CoveragePercent: rep.Selection.CoveragePercent(),
	})
}

func (s *Server) handleCoverageWorkbook(w http.ResponseWriter, r *http.Request) {
	rep, err := s.coverage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("coverage-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := excel.WriteWorkbook(w, rep.Selection, rep.Dataset.Browsers); err != nil {
		s.logger.Error("[API] Failed to write workbook: %v", err)
	}
}

func (s *Server) coverage(r *http.Request) (*app.CoverageReport, error) {
	q := r.URL.Query()
	threshold, err := app.ParseThreshold(q.Get("threshold"), s.config.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	sort := q.Get("sort")
	if sort == "" {
		sort = s.config.DefaultSort
	}
	return s.service.Coverage(threshold, sort)
}
