package usage

import (
	"fmt"
	"strings"
)

// RawRow is one parsed line of an analytics export keyed by column header
type RawRow map[string]string

// Export is a parsed analytics file: header order plus data rows
type Export struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"-"`
}

// VersionUsage is the summed user count for one normalized version of a browser
type VersionUsage struct {
	Version string  `json:"version"`
	Users   float64 `json:"users"`
}

// Browser is a display identity with its versions ordered newest first
type Browser struct {
	Name     string         `json:"name"`
	Versions []VersionUsage `json:"versions"`
}

// Users returns the total users across all versions of the browser
func (b Browser) Users() float64 {
	total := 0.0
	for _, v := range b.Versions {
		total += v.Users
	}
	return total
}

// Candidate is a flattened (browser, version) pair considered during selection
type Candidate struct {
	Name  string       `json:"name"`
	Usage VersionUsage `json:"usage"`
}

// Label renders the candidate as "Name Version"
func (c Candidate) Label() string {
	return c.Name + " " + c.Usage.Version
}

// Share returns the candidate's percentage of total, or 0 when total is not positive
func (c Candidate) Share(total float64) float64 {
	if total <= 0 {
		return 0
	}
	return c.Usage.Users / total * 100
}

// SortMode controls the display order of a selection
type SortMode string

const (
	SortByUsage SortMode = "usage"
	SortByName  SortMode = "name"
)

// ParseSortMode accepts "usage" or "name" (case-insensitive); empty means usage
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortByUsage):
		return SortByUsage, nil
	case string(SortByName):
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q (want usage or name)", s)
	}
}

// Selection is the covering subset produced by Select
type Selection struct {
	Selected   []Candidate `json:"selected"`
	Total      float64     `json:"total"`
	Threshold  float64     `json:"threshold"`
	Limit      float64     `json:"limit"`
	Coverage   float64     `json:"coverage"`
	Candidates int         `json:"candidates"`
	Sort       SortMode    `json:"sort"`
}

// CoveragePercent returns the share of total users reached by the selection
func (s Selection) CoveragePercent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return s.Coverage / s.Total * 100
}
