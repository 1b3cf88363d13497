package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"browsercov/domain/usage"
)

// Platform is one browser/OS pairing the generator draws rows from
type Platform struct {
	Browser  string
	OS       string
	Major    int // newest major version
	Minor    bool
	Versions int // how many majors back to emit
	Weight   float64
}

// ExportGeneratorConfig configures the synthetic analytics export generator
type ExportGeneratorConfig struct {
	Platforms     []Platform    `json:"platforms"`
	TotalUsers    float64       `json:"total_users"`
	Decay         float64       `json:"decay"` // share kept by each older version
	BadCountRate  float64       `json:"bad_count_rate"`
	BlankRowRate  float64       `json:"blank_row_rate"`
	Columns       usage.Columns `json:"columns"`
	CommentHeader string        `json:"comment_header"`
	Seed          int64         `json:"seed"`
}

// DefaultExportConfig returns a desktop and mobile mix resembling a GA export
func DefaultExportConfig() ExportGeneratorConfig {
	return ExportGeneratorConfig{
		Platforms: []Platform{
			{Browser: "Chrome", OS: "Windows", Major: 120, Versions: 6, Weight: 0.34},
			{Browser: "Chrome", OS: "Android", Major: 120, Versions: 5, Weight: 0.2},
			{Browser: "Safari", OS: "iOS", Major: 17, Minor: true, Versions: 4, Weight: 0.18},
			{Browser: "Safari", OS: "Macintosh", Major: 17, Minor: true, Versions: 3, Weight: 0.07},
			{Browser: "Edge", OS: "Windows", Major: 120, Versions: 4, Weight: 0.09},
			{Browser: "Firefox", OS: "Windows", Major: 121, Versions: 4, Weight: 0.06},
			{Browser: "Samsung Internet", OS: "Android", Major: 23, Versions: 3, Weight: 0.04},
			{Browser: "Opera", OS: "Windows", Major: 105, Versions: 2, Weight: 0.02},
		},
		TotalUsers:    250000,
		Decay:         0.45,
		Columns:       usage.LegacyColumns,
		CommentHeader: "Audience: All users",
		Seed:          42,
	}
}

// ExportGenerator produces deterministic browser usage rows for a seed
type ExportGenerator struct {
	config ExportGeneratorConfig
	rng    *rand.Rand
}

// NewExportGenerator creates a new export generator
func NewExportGenerator(config ExportGeneratorConfig) *ExportGenerator {
	if config.Decay <= 0 || config.Decay >= 1 {
		config.Decay = DefaultExportConfig().Decay
	}
	if config.Columns == (usage.Columns{}) {
		config.Columns = usage.LegacyColumns
	}
	return &ExportGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers returns the header row in column order vendor, OS, version, users
func (g *ExportGenerator) Headers() []string {
	c := g.config.Columns
	return []string{c.Vendor, c.OS, c.Version, c.Users}
}

// GenerateRows emits one row per platform version, newest first, with raw
// build numbers and thousands-separated counts the way analytics tools export them
func (g *ExportGenerator) GenerateRows() []usage.RawRow {
	printer := message.NewPrinter(language.English)
	c := g.config.Columns

	var rows []usage.RawRow
	for _, p := range g.config.Platforms {
		budget := g.config.TotalUsers * p.Weight
		share := (1 - g.config.Decay) / (1 - math.Pow(g.config.Decay, float64(max(p.Versions, 1))))

		for i := 0; i < p.Versions; i++ {
			if g.config.BlankRowRate > 0 && g.rng.Float64() < g.config.BlankRowRate {
				rows = append(rows, usage.RawRow{c.Vendor: "", c.OS: p.OS, c.Version: "", c.Users: "0"})
			}

			jitter := 0.85 + 0.3*g.rng.Float64()
			users := math.Round(budget * share * math.Pow(g.config.Decay, float64(i)) * jitter)

			count := printer.Sprintf("%.0f", users)
			if g.config.BadCountRate > 0 && g.rng.Float64() < g.config.BadCountRate {
				count = "n/a"
			}

			rows = append(rows, usage.RawRow{
				c.Vendor:  p.Browser,
				c.OS:      p.OS,
				c.Version: g.version(p, i),
				c.Users:   count,
			})
		}
	}
	return rows
}

func (g *ExportGenerator) version(p Platform, back int) string {
	major := p.Major - back
	if p.Minor {
		return fmt.Sprintf("%d.%d.%d", major, g.rng.Intn(6), g.rng.Intn(3))
	}
	return fmt.Sprintf("%d.0.%d.%d", major, 5000+g.rng.Intn(1200), g.rng.Intn(200))
}

// Export wraps generated rows as a parsed export
func (g *ExportGenerator) Export(name string) *usage.Export {
	return &usage.Export{Name: name, Headers: g.Headers(), Rows: g.GenerateRows()}
}

// WriteCSV writes a comment line, the header row and the generated rows
func (g *ExportGenerator) WriteCSV(w io.Writer) error {
	if g.config.CommentHeader != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", g.config.CommentHeader); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	headers := g.Headers()
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range g.GenerateRows() {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = row[h]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
