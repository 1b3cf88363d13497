package excel

import (
	"path/filepath"
	"strings"
)

// FileType is the container format of an analytics export
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// DetectFileType guesses the format from a file name; unknown extensions are treated as CSV
// because analytics tools often download exports without one.
func DetectFileType(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX
	default:
		return FileTypeCSV
	}
}
