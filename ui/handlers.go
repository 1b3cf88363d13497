package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"browsercov/app"
	"browsercov/internal/errors"
)

type coverageView struct {
	Dataset *app.Dataset
	Report  *app.CoverageReport
}

type pageView struct {
	Threshold float64
	Sort      string
	Coverage  *coverageView
	Error     string
}

func (s *Server) handleIndex(c *gin.Context) {
	page := pageView{Threshold: s.opts.DefaultThreshold, Sort: s.opts.DefaultSort}

	threshold, err := app.ParseThreshold(c.Query("threshold"), s.opts.DefaultThreshold)
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, http.StatusOK, "index.html", page)
		return
	}
	page.Threshold = threshold
	if sort := c.Query("sort"); sort != "" {
		page.Sort = sort
	}

	if view, err := s.coverage(page.Threshold, page.Sort); err == nil {
		page.Coverage = view
	} else if errors.GetCode(err) != errors.CodeNotFound {
		page.Error = err.Error()
	}
	s.renderTemplate(c, http.StatusOK, "index.html", page)
}

func (s *Server) handleUpload(c *gin.Context) {
	if c.Request.ContentLength > s.opts.MaxUploadBytes {
		s.renderError(c, errors.TooLarge(fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes)))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.renderError(c, errors.TooLarge(fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes)))
			return
		}
		s.renderError(c, errors.InvalidInput("multipart field \"file\" is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.renderError(c, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open upload")))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.renderError(c, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read upload")))
		return
	}

	if _, err := s.service.LoadBytes(c.Request.Context(), header.Filename, data); err != nil {
		s.renderError(c, err)
		return
	}

	threshold, err := app.ParseThreshold(c.PostForm("threshold"), s.opts.DefaultThreshold)
	if err != nil {
		s.renderError(c, err)
		return
	}
	sort := c.DefaultPostForm("sort", s.opts.DefaultSort)

	if !isHTMX(c) {
		q := url.Values{}
		q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
		q.Set("sort", sort)
		c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
		return
	}
	s.renderCoverage(c, threshold, sort)
}

// handleCoverage returns the results fragment for the current controls
func (s *Server) handleCoverage(c *gin.Context) {
	threshold, err := app.ParseThreshold(c.Query("threshold"), s.opts.DefaultThreshold)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderCoverage(c, threshold, c.DefaultQuery("sort", s.opts.DefaultSort))
}

func (s *Server) renderCoverage(c *gin.Context, threshold float64, sort string) {
	view, err := s.coverage(threshold, sort)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "coverage.html", view)
}

func (s *Server) coverage(threshold float64, sort string) (*coverageView, error) {
	rep, err := s.service.Coverage(threshold, sort)
	if err != nil {
		return nil, err
	}
	return &coverageView{Dataset: rep.Dataset, Report: rep}, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	_, err := s.service.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"dataset_loaded": err == nil,
	})
}
