package usage

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the shape of an aggregated dataset
type Summary struct {
	Browsers      int       `json:"browsers"`
	Candidates    int       `json:"candidates"`
	TotalUsers    float64   `json:"total_users"`
	MedianUsers   float64   `json:"median_users"`
	P90Users      float64   `json:"p90_users"`
	ShareEntropy  float64   `json:"share_entropy"`
	CoverageCurve []float64 `json:"coverage_curve"` // cumulative percent by rank, largest first
}

// Summarize computes dataset-level statistics. Empty input yields a zero Summary.
func Summarize(browsers []Browser) Summary {
	candidates := Flatten(browsers)
	summary := Summary{
		Browsers:      len(browsers),
		Candidates:    len(candidates),
		CoverageCurve: []float64{},
	}
	if len(candidates) == 0 {
		return summary
	}

	users := make([]float64, len(candidates))
	for i, c := range candidates {
		users[i] = c.Usage.Users
	}
	summary.TotalUsers = floats.Sum(users)

	if median, err := stats.Median(users); err == nil {
		summary.MedianUsers = median
	}
	if p90, err := stats.Percentile(users, 90); err == nil {
		summary.P90Users = p90
	}

	if summary.TotalUsers <= 0 {
		return summary
	}

	shares := make([]float64, len(users))
	copy(shares, users)
	sort.Sort(sort.Reverse(sort.Float64Slice(shares)))
	floats.Scale(1/summary.TotalUsers, shares)
	summary.ShareEntropy = stat.Entropy(shares)

	curve := make([]float64, len(shares))
	floats.CumSum(curve, shares)
	floats.Scale(100, curve)
	summary.CoverageCurve = curve
	return summary
}

// RankFor returns how many of the largest candidates reach percent coverage,
// reading the summary's coverage curve. It returns 0 for an empty curve.
func (s Summary) RankFor(percent float64) int {
	for i, v := range s.CoverageCurve {
		if v >= percent {
			return i + 1
		}
	}
	return len(s.CoverageCurve)
}
