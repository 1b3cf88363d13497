package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportCSV = `# Audience: All users
Browser,Operating System,Browser Version,Users
Chrome,Windows,120.0,"4,000"
Chrome,Windows,119.0,"1,500"
Safari,iOS,17.1.1,"2,000"
Safari,Macintosh,17.0,800
Firefox,Linux,121.0,900
,Windows,1.0,50
`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audience.csv")
	require.NoError(t, os.WriteFile(path, []byte(exportCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReportText(t *testing.T) {
	path := writeExport(t)

	out, stderr, err := run(t, "report", path, "--threshold", "60")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "of 9,200 users covered by 2 of 5 browser versions (threshold 60%, sorted by usage)")
	assert.Equal(t, "  Chrome 120 (43.48%)", lines[1])
	assert.Equal(t, "  Safari iOS 17.1 (21.74%)", lines[2])
	assert.Contains(t, stderr, "skipped 1 rows")
}

func TestReportSortByNameToFile(t *testing.T) {
	path := writeExport(t)
	outPath := filepath.Join(t.TempDir(), "report.md")

	out, _, err := run(t, "report", path, "-t", "100", "-s", "name", "-f", "md", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "| 1 | Chrome | 120 |")
	assert.Contains(t, md, "| 2 | Chrome | 119 |")
	assert.Contains(t, md, "| 3 | Firefox | 121 |")
	assert.Contains(t, md, "| 4 | Safari Mac | 17.0 |")
	assert.Contains(t, md, "| 5 | Safari iOS | 17.1 |")
}

func TestReportErrors(t *testing.T) {
	path := writeExport(t)

	_, _, err := run(t, "report", path, "--format", "pdf")
	assert.Error(t, err)

	_, _, err = run(t, "report", path, "--threshold", "120")
	assert.Error(t, err)

	_, _, err = run(t, "report", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, _, err = run(t, "report")
	assert.Error(t, err)
}

func TestBrowsers(t *testing.T) {
	out, _, err := run(t, "browsers", writeExport(t))
	require.NoError(t, err)
	assert.Equal(t, `Chrome (5,500 users)
  120: 4,000
  119: 1,500
Safari iOS (2,000 users)
  17.1: 2,000
Safari Mac (800 users)
  17.0: 800
Firefox (900 users)
  121: 900
`, out)
}

func TestRulesCommand(t *testing.T) {
	out, _, err := run(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "Safari:")
	assert.Contains(t, out, "dot_version: true")
	assert.Contains(t, out, "iOS: Safari iOS")

	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("Firefox:\n  dot_version: true\n"), 0o644))
	out, _, err = run(t, "browsers", writeExport(t), "--rules", rulesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "  121.0: 900")
}

func TestSampleFeedsReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	_, _, err := run(t, "sample", "--seed", "7", "--preset", "ga4", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Browser,Operating system,Browser version,Total users")

	out, _, err := run(t, "report", path, "--threshold", "100", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Safari iOS"`)

	_, _, err = run(t, "sample", "--preset", "matomo")
	assert.Error(t, err)
}
