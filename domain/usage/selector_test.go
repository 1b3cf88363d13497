package usage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBrowsers() []Browser {
	rows := []RawRow{
		row("Chrome", "Windows", "10", "1,000"),
		row("Firefox", "Windows", "10", "500"),
	}
	return Aggregate(rows, DefaultRules(), LegacyColumns)
}

func sampleBrowsers() []Browser {
	rows := []RawRow{
		row("Chrome", "Windows", "120.0", "4,000"),
		row("Chrome", "Windows", "119.0", "1,500"),
		row("Safari", "iOS", "17.1.1", "2,000"),
		row("Safari", "macOS", "17.0", "800"),
		row("Firefox", "Linux", "121.0", "900"),
		row("Edge", "Windows", "120.0", "600"),
		row("Samsung Internet", "Android", "23.0", "200"),
		row("Opera", "Windows", "105.0", "0"),
	}
	return Aggregate(rows, DefaultRules(), LegacyColumns)
}

func coverageOf(sel Selection) float64 {
	sum := 0.0
	for _, c := range sel.Selected {
		sum += c.Usage.Users
	}
	return sum
}

func TestSelect_Scenario(t *testing.T) {
	sel := Select(twoBrowsers(), 70, SortByUsage)

	assert.Equal(t, 1500.0, sel.Total)
	assert.Equal(t, 1050.0, sel.Limit)
	require.Len(t, sel.Selected, 2)
	assert.Equal(t, "Chrome", sel.Selected[0].Name)
	assert.Equal(t, "Firefox", sel.Selected[1].Name)
	assert.Equal(t, 1500.0, sel.Coverage)
}

func TestSelect_NameSortScenario(t *testing.T) {
	sel := Select(twoBrowsers(), 70, SortByName)

	require.Len(t, sel.Selected, 2)
	assert.Equal(t, "Chrome", sel.Selected[0].Name)
	assert.Equal(t, "Firefox", sel.Selected[1].Name)
	assert.Equal(t, SortByName, sel.Sort)

	// lowercase sorts after uppercase
	rows := []RawRow{
		row("firefox", "Windows", "10", "900"),
		row("Firefox", "Windows", "10", "100"),
	}
	sel = Select(Aggregate(rows, DefaultRules(), LegacyColumns), 100, SortByName)
	require.Len(t, sel.Selected, 2)
	assert.Equal(t, "Firefox", sel.Selected[0].Name)
	assert.Equal(t, "firefox", sel.Selected[1].Name)
}

func TestSelect_Thresholds(t *testing.T) {
	browsers := sampleBrowsers()
	all := len(Flatten(browsers))

	tests := []struct {
		name      string
		threshold float64
		wantLen   int
	}{
		{"zero selects nothing", 0, 0},
		{"negative clamps to zero", -5, 0},
		{"NaN treated as zero", math.NaN(), 0},
		{"hundred selects everything", 100, all},
		{"above hundred clamps", 250, all},
		{"largest alone covers 40 percent", 40, 1},
		{"two largest cover 60 percent", 60, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(browsers, tt.threshold, SortByUsage)
			assert.Len(t, sel.Selected, tt.wantLen)
			assert.Equal(t, all, sel.Candidates)
		})
	}
}

func TestSelect_TotalMatchesAggregate(t *testing.T) {
	browsers := sampleBrowsers()
	sum := 0.0
	for _, b := range browsers {
		sum += b.Users()
	}
	for _, threshold := range []float64{0, 33.3, 95, 100} {
		sel := Select(browsers, threshold, SortByName)
		assert.InDelta(t, sum, sel.Total, 1e-9)
	}
}

func TestSelect_Monotonic(t *testing.T) {
	browsers := sampleBrowsers()
	prev := -1.0
	for threshold := 0.0; threshold <= 100; threshold += 0.25 {
		sel := Select(browsers, threshold, SortByUsage)
		got := coverageOf(sel)
		assert.GreaterOrEqual(t, got, prev, "threshold %.2f", threshold)
		assert.GreaterOrEqual(t, got, sel.Limit)
		prev = got
	}
}

func TestSelect_UsageOrderStable(t *testing.T) {
	rows := []RawRow{
		row("Zeta", "Windows", "1", "100"),
		row("Alpha", "Windows", "1", "100"),
		row("Mid", "Windows", "1", "100"),
	}
	sel := Select(Aggregate(rows, nil, LegacyColumns), 100, SortByUsage)
	require.Len(t, sel.Selected, 3)
	assert.Equal(t, "Zeta", sel.Selected[0].Name)
	assert.Equal(t, "Alpha", sel.Selected[1].Name)
	assert.Equal(t, "Mid", sel.Selected[2].Name)
}

func TestSelect_NameModeOrdersVersionsDescending(t *testing.T) {
	sel := Select(sampleBrowsers(), 100, SortByName)

	var labels []string
	for _, c := range sel.Selected {
		labels = append(labels, c.Label())
	}
	assert.Equal(t, []string{
		"Chrome 120",
		"Chrome 119",
		"Edge 120",
		"Firefox 121",
		"Opera 105",
		"Safari Mac 17.0",
		"Safari iOS 17.1",
		"Samsung Internet 23",
	}, labels)
}

func TestSelect_EmptyAndZeroTotal(t *testing.T) {
	sel := Select(nil, 95, SortByUsage)
	assert.Empty(t, sel.Selected)
	assert.Zero(t, sel.Total)
	assert.Zero(t, sel.CoveragePercent())

	zero := Aggregate([]RawRow{row("Chrome", "Windows", "1", "0")}, nil, LegacyColumns)
	assert.Empty(t, Select(zero, 50, SortByUsage).Selected)
	assert.Len(t, Select(zero, 100, SortByUsage).Selected, 1)
}

func TestParseSortMode(t *testing.T) {
	mode, err := ParseSortMode("NAME")
	require.NoError(t, err)
	assert.Equal(t, SortByName, mode)

	mode, err = ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortByUsage, mode)

	_, err = ParseSortMode("popularity")
	assert.Error(t, err)
}

func TestCandidateShare(t *testing.T) {
	c := Candidate{Name: "Chrome", Usage: VersionUsage{Version: "120", Users: 250}}
	assert.Equal(t, 25.0, c.Share(1000))
	assert.Zero(t, c.Share(0))
}
