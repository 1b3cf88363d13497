package usage

import (
	"fmt"
	"strings"
)

// Columns names the export headers the aggregator reads
type Columns struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	OS      string `json:"os" yaml:"os"`
	Version string `json:"version" yaml:"version"`
	Users   string `json:"users" yaml:"users"`
}

// LegacyColumns matches Universal Analytics browser exports
var LegacyColumns = Columns{
	Vendor:  "Browser",
	OS:      "Operating System",
	Version: "Browser Version",
	Users:   "Users",
}

// GA4Columns matches GA4 "Tech details" exports
var GA4Columns = Columns{
	Vendor:  "Browser",
	OS:      "Operating system",
	Version: "Browser version",
	Users:   "Total users",
}

// DefaultColumns is used when headers give no better hint
var DefaultColumns = LegacyColumns

var columnPresets = map[string]Columns{
	"legacy": LegacyColumns,
	"ga4":    GA4Columns,
}

// Missing returns the column names absent from headers
func (c Columns) Missing(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, name := range []string{c.Vendor, c.OS, c.Version, c.Users} {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// DetectColumns picks the preset whose headers are all present,
// falling back to DefaultColumns.
func DetectColumns(headers []string) Columns {
	for _, preset := range []Columns{LegacyColumns, GA4Columns} {
		if len(preset.Missing(headers)) == 0 {
			return preset
		}
	}
	return DefaultColumns
}

// ResolveColumns maps a preset name ("auto", "legacy", "ga4") to columns.
// "auto" and "" detect from headers.
func ResolveColumns(preset string, headers []string) (Columns, error) {
	name := strings.ToLower(strings.TrimSpace(preset))
	if name == "" || name == "auto" {
		return DetectColumns(headers), nil
	}
	cols, ok := columnPresets[name]
	if !ok {
		return Columns{}, fmt.Errorf("unknown column preset %q (want auto, legacy or ga4)", preset)
	}
	return cols, nil
}
