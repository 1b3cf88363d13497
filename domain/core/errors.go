package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotLoaded = fmt.Errorf("%w: no dataset loaded", ErrNotFound)

	ErrMissingColumns  = errors.New("export is missing required columns")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// NewMissingColumnsError reports which required headers were absent
func NewMissingColumnsError(columns []string) error {
	return fmt.Errorf("%w: %v", ErrMissingColumns, columns)
}
