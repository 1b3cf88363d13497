package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"browsercov/adapters/excel"
	"browsercov/domain/usage"
)

// Format is an output encoding for a coverage report
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts text, markdown (md), html, json or xlsx
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Document is everything a rendered report shows
type Document struct {
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
	Selection   usage.Selection `json:"selection"`
	Summary     usage.Summary   `json:"summary"`
	Browsers    []usage.Browser `json:"browsers"`
	Warnings    []string        `json:"warnings,omitempty"`
}

var printer = message.NewPrinter(language.English)

// Write renders doc in the requested format
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatText:
		_, err := io.WriteString(w, Text(doc))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(doc))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(doc))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatXLSX:
		return excel.WriteWorkbook(w, doc.Selection, doc.Browsers)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Text renders the covering list one candidate per line
func Text(doc Document) string {
	var sb strings.Builder
	sel := doc.Selection

	fmt.Fprintf(&sb, "%s of %s users covered by %d of %d browser versions (threshold %s%%, sorted by %s)\n",
		percent(sel.CoveragePercent()), Users(sel.Total), len(sel.Selected), sel.Candidates,
		trimFloat(sel.Threshold), sel.Sort)
	for _, c := range sel.Selected {
		fmt.Fprintf(&sb, "  %s (%s)\n", c.Label(), percent(c.Share(sel.Total)))
	}
	return sb.String()
}

// Markdown renders the selection, summary and full breakdown as tables
func Markdown(doc Document) string {
	var sb strings.Builder
	sel := doc.Selection

	sb.WriteString("# Browser Coverage Report\n\n")
	if doc.Source != "" {
		fmt.Fprintf(&sb, "**Source:** `%s`\n", doc.Source)
	}
	if !doc.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "**Generated:** %s\n", doc.GeneratedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "**Threshold:** %s%%  \n**Sort:** %s\n\n", trimFloat(sel.Threshold), sel.Sort)

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("| :--- | ---: |\n")
	fmt.Fprintf(&sb, "| Total users | %s |\n", Users(sel.Total))
	fmt.Fprintf(&sb, "| Browsers | %d |\n", doc.Summary.Browsers)
	fmt.Fprintf(&sb, "| Browser versions | %d |\n", sel.Candidates)
	fmt.Fprintf(&sb, "| Selected versions | %d |\n", len(sel.Selected))
	fmt.Fprintf(&sb, "| Coverage | %s |\n", percent(sel.CoveragePercent()))
	fmt.Fprintf(&sb, "| Median users per version | %s |\n", Users(doc.Summary.MedianUsers))
	fmt.Fprintf(&sb, "| Share entropy | %.3f |\n", doc.Summary.ShareEntropy)
	sb.WriteString("\n")

	sb.WriteString("## Covering Set\n\n")
	if len(sel.Selected) == 0 {
		sb.WriteString("_No browser versions selected._\n")
	} else {
		sb.WriteString("| # | Browser | Version | Users | Share |\n")
		sb.WriteString("| ---: | :--- | :--- | ---: | ---: |\n")
		for i, c := range sel.Selected {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
				i+1, escapeCell(c.Name), escapeCell(c.Usage.Version), Users(c.Usage.Users), percent(c.Share(sel.Total)))
		}
	}

	if len(doc.Browsers) > 0 {
		sb.WriteString("\n## All Browsers\n")
		for _, b := range doc.Browsers {
			fmt.Fprintf(&sb, "\n### %s\n\n", escapeCell(b.Name))
			for _, v := range b.Versions {
				fmt.Fprintf(&sb, "- %s: %s\n", escapeCell(v.Version), Users(v.Users))
			}
		}
	}

	if len(doc.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n## Warnings (%d)\n\n", len(doc.Warnings))
		for _, w := range doc.Warnings {
			fmt.Fprintf(&sb, "- %s\n", strings.ReplaceAll(w, "\n", " "))
		}
	}

	return sb.String()
}

// HTML renders the Markdown report as a standalone page
func HTML(doc Document) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Browser Coverage Report",
	})
	return markdown.ToHTML([]byte(Markdown(doc)), p, r)
}

// Users formats a user count with thousands separators
func Users(v float64) string {
	return printer.Sprintf("%.0f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
