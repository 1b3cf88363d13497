package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"browsercov/domain/core"
	"browsercov/domain/usage"
	"browsercov/internal"
)

// DataReader reads analytics exports from CSV text or XLSX workbooks
type DataReader struct {
	name     string
	fileType FileType
	open     func() (io.ReadCloser, error)
}

// NewDataReader creates a reader for a file on disk
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		name:     filePath,
		fileType: DetectFileType(filePath),
		open: func() (io.ReadCloser, error) {
			return os.Open(filePath)
		},
	}
}

// NewTextReader creates a reader for CSV text already in memory
func NewTextReader(name, text string) *DataReader {
	return &DataReader{
		name:     name,
		fileType: FileTypeCSV,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(text)), nil
		},
	}
}

// NewBytesReader creates a reader for uploaded content; the format follows name's extension
func NewBytesReader(name string, data []byte) *DataReader {
	return &DataReader{
		name:     name,
		fileType: DetectFileType(name),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Name returns the source name used in logs and reports
func (r *DataReader) Name() string {
	return r.name
}

// ReadData reads the export into headers and raw rows
func (r *DataReader) ReadData() (*usage.Export, error) {
	internal.DefaultLogger.Debug("[DataReader] Starting to read %s export: %s", r.fileType, r.name)

	src, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.name, err)
	}
	defer src.Close()

	var rows [][]string
	switch r.fileType {
	case FileTypeCSV:
		rows, err = r.readCSV(src)
	case FileTypeXLSX:
		rows, err = r.readExcel(src)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFile, r.fileType)
	}
	if err != nil {
		return nil, err
	}

	return r.processRows(rows)
}

// readCSV strips comment lines and parses the remaining comma-delimited block
func (r *DataReader) readCSV(src io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV export: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(StripComments(string(raw))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV export: %w", err)
	}
	internal.DefaultLogger.Debug("[DataReader] CSV parsed in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readExcel reads the first sheet of a workbook
func (r *DataReader) readExcel(src io.Reader) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel export: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	internal.DefaultLogger.Debug("[DataReader] Sheet %q read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	kept := rows[:0]
	for _, row := range rows {
		if isBlank(row) || (len(row) > 0 && strings.HasPrefix(row[0], "#")) {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// processRows converts raw string rows into an Export keyed by the header row.
// An input with no header row yields an empty export.
func (r *DataReader) processRows(rows [][]string) (*usage.Export, error) {
	if len(rows) == 0 {
		return &usage.Export{Name: r.name, Headers: []string{}, Rows: []usage.RawRow{}}, nil
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]usage.RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(usage.RawRow, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	internal.DefaultLogger.Info("[DataReader] %s export %s processed (%d columns, %d rows)",
		strings.ToUpper(string(r.fileType)), r.name, len(headers), len(dataRows))

	return &usage.Export{
		Name:    r.name,
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// StripComments drops empty lines and lines starting with '#'
func StripComments(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
