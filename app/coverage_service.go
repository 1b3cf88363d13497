package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"browsercov/adapters/excel"
	"browsercov/domain/core"
	"browsercov/domain/usage"
	"browsercov/internal"
	"browsercov/internal/errors"
	"browsercov/ports"
)

// Dataset is one loaded export, aggregated and ready for selection
type Dataset struct {
	ID          core.DatasetID  `json:"id"`
	Name        string          `json:"name"`
	Fingerprint core.Hash       `json:"fingerprint"`
	LoadedAt    time.Time       `json:"loaded_at"`
	Columns     usage.Columns   `json:"columns"`
	Stats       usage.Stats     `json:"stats"`
	Summary     usage.Summary   `json:"summary"`
	Warnings    []string        `json:"warnings,omitempty"`
	Browsers    []usage.Browser `json:"browsers"`
}

// CoverageReport is a selection computed against a specific dataset
type CoverageReport struct {
	DatasetID   core.DatasetID  `json:"dataset_id"`
	DatasetName string          `json:"dataset_name"`
	Selection   usage.Selection `json:"selection"`

	Dataset *Dataset `json:"-"`
}

// CoverageService holds the most recently loaded dataset and answers coverage queries.
// Each load replaces the previous dataset.
type CoverageService struct {
	rules        usage.Rules
	columnPreset string
	logger       *internal.Logger

	mu      sync.RWMutex
	current *Dataset
}

// NewCoverageService creates a coverage service
func NewCoverageService(rules usage.Rules, columnPreset string, logger *internal.Logger) *CoverageService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CoverageService{
		rules:        rules,
		columnPreset: columnPreset,
		logger:       logger,
	}
}

// Load reads an export and makes it the current dataset
func (s *CoverageService) Load(ctx context.Context, reader ports.ExportReader) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	export, err := reader.ReadData()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read %s", reader.Name()))
	}

	dataset, err := BuildDataset(export, s.rules, s.columnPreset)
	if err != nil {
		return nil, err
	}
	for _, w := range dataset.Warnings {
		s.logger.Warn("[CoverageService] %s: %s", dataset.Name, w)
	}

	s.mu.Lock()
	s.current = dataset
	s.mu.Unlock()

	s.logger.Info("[CoverageService] Loaded dataset %s (%s, content %s): %d rows, %d browsers, %d candidates, %.0f users",
		dataset.ID, dataset.Name, dataset.Fingerprint.Short(), dataset.Stats.Rows, dataset.Summary.Browsers,
		dataset.Summary.Candidates, dataset.Summary.TotalUsers)
	return dataset, nil
}

// LoadText loads CSV text, as delivered by a file drop
func (s *CoverageService) LoadText(ctx context.Context, name, text string) (*Dataset, error) {
	return s.Load(ctx, excel.NewTextReader(name, text))
}

// LoadBytes loads uploaded content; the format follows name's extension
func (s *CoverageService) LoadBytes(ctx context.Context, name string, data []byte) (*Dataset, error) {
	return s.Load(ctx, excel.NewBytesReader(name, data))
}

// LoadFile loads an export from disk
func (s *CoverageService) LoadFile(ctx context.Context, path string) (*Dataset, error) {
	return s.Load(ctx, excel.NewDataReader(path))
}

// Current returns the loaded dataset or a NOT_FOUND error
func (s *CoverageService) Current() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, errors.WithCode(errors.CodeNotFound, core.ErrDatasetNotLoaded)
	}
	return s.current, nil
}

// Dataset returns the current dataset when its ID matches id
func (s *CoverageService) Dataset(id string) (*Dataset, error) {
	want, err := core.ParseDatasetID(id)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	dataset, err := s.Current()
	if err != nil {
		return nil, err
	}
	if dataset.ID != want {
		return nil, errors.NotFound("dataset " + id)
	}
	return dataset, nil
}

// Browsers returns the full per-browser breakdown of the current dataset
func (s *CoverageService) Browsers() ([]usage.Browser, error) {
	dataset, err := s.Current()
	if err != nil {
		return nil, err
	}
	return dataset.Browsers, nil
}

// Coverage selects the covering set for the current dataset
func (s *CoverageService) Coverage(threshold float64, sortMode string) (*CoverageReport, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	mode, err := usage.ParseSortMode(sortMode)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	dataset, err := s.Current()
	if err != nil {
		return nil, err
	}

	return &CoverageReport{
		DatasetID:   dataset.ID,
		DatasetName: dataset.Name,
		Selection:   usage.Select(dataset.Browsers, threshold, mode),
		Dataset:     dataset,
	}, nil
}

// ValidateThreshold rejects values outside [0, 100]
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return errors.ValidationError(fmt.Sprintf("threshold must be between 0 and 100, got %v", threshold))
	}
	return nil
}

// ParseThreshold reads a threshold query value, falling back to def when raw is blank
func ParseThreshold(raw string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("threshold %q is not a number", raw))
	}
	return v, ValidateThreshold(v)
}

// BuildDataset resolves columns, aggregates rows and summarizes the result
func BuildDataset(export *usage.Export, rules usage.Rules, columnPreset string) (*Dataset, error) {
	cols, err := usage.ResolveColumns(columnPreset, export.Headers)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	var warnings []string
	if missing := cols.Missing(export.Headers); len(missing) > 0 && len(export.Rows) > 0 {
		warnings = append(warnings, core.NewMissingColumnsError(missing).Error())
	}

	browsers, stats := usage.NewAggregator(rules, cols).AggregateWithStats(export.Rows)
	if stats.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d rows without a browser or version", stats.Skipped))
	}
	if stats.BadCounts > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows had an unreadable user count and were counted as zero", stats.BadCounts))
	}

	return &Dataset{
		ID:          core.NewDatasetID(),
		Name:        export.Name,
		Fingerprint: fingerprint(export),
		LoadedAt:    time.Now().UTC(),
		Columns:     cols,
		Stats:       stats,
		Summary:     usage.Summarize(browsers),
		Warnings:    warnings,
		Browsers:    browsers,
	}, nil
}

// fingerprint hashes headers and rows so identical uploads can be recognized
func fingerprint(export *usage.Export) core.Hash {
	data, err := json.Marshal(struct {
		Headers []string       `json:"h"`
		Rows    []usage.RawRow `json:"r"`
	}{export.Headers, export.Rows})
	if err != nil {
		return ""
	}
	return core.NewHash(data)
}
