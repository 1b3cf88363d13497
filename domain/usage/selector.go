package usage

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Select picks the largest candidates, in order, until their users reach
// thresholdPercent of the total. A threshold of 100 or more always selects
// every candidate; 0 (or NaN) selects none. In SortByName mode the selection
// is reordered by name, then newest version first.
func Select(browsers []Browser, thresholdPercent float64, mode SortMode) Selection {
	threshold := clampThreshold(thresholdPercent)
	candidates := Flatten(browsers)

	users := make([]float64, len(candidates))
	for i, c := range candidates {
		users[i] = c.Usage.Users
	}
	total := floats.Sum(users)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Usage.Users > candidates[j].Usage.Users
	})

	limit := total * threshold / 100
	selected := make([]Candidate, 0)
	coverage := 0.0

	switch {
	case threshold >= 100:
		selected = append(selected, candidates...)
		coverage = total
	case threshold > 0:
		for i := 0; i < len(candidates) && coverage < limit; i++ {
			selected = append(selected, candidates[i])
			coverage += candidates[i].Usage.Users
		}
	}

	if mode == SortByName {
		sortByName(selected)
	} else {
		mode = SortByUsage
	}

	return Selection{
		Selected:   selected,
		Total:      total,
		Threshold:  threshold,
		Limit:      limit,
		Coverage:   coverage,
		Candidates: len(candidates),
		Sort:       mode,
	}
}

func sortByName(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return newerVersion(a.Usage.Version, b.Usage.Version)
	})
}

func clampThreshold(t float64) float64 {
	switch {
	case math.IsNaN(t), t <= 0:
		return 0
	case t >= 100:
		return 100
	default:
		return t
	}
}
