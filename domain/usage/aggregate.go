package usage

import (
	"sort"
	"strings"
)

// Aggregator groups raw rows into browsers using a rule set and column layout
type Aggregator struct {
	Rules   Rules
	Columns Columns
}

// NewAggregator creates an aggregator; nil rules means no vendor rules
func NewAggregator(rules Rules, cols Columns) *Aggregator {
	if rules == nil {
		rules = Rules{}
	}
	return &Aggregator{Rules: rules, Columns: cols}
}

// Aggregate is a convenience wrapper around Aggregator.Aggregate
func Aggregate(rows []RawRow, rules Rules, cols Columns) []Browser {
	return NewAggregator(rules, cols).Aggregate(rows)
}

// group keeps keys in first-seen order
type group struct {
	name     string
	versions []string
	users    map[string]float64
}

// Stats counts how rows were treated during aggregation
type Stats struct {
	Rows       int `json:"rows"`
	Skipped    int `json:"skipped"`
	BadCounts  int `json:"bad_counts"`
	Identities int `json:"identities"`
}

// Aggregate groups rows by identity then by normalized version and sums users.
// Rows without a vendor or version are skipped; bad counts contribute zero.
func (a *Aggregator) Aggregate(rows []RawRow) []Browser {
	browsers, _ := a.AggregateWithStats(rows)
	return browsers
}

// AggregateWithStats is Aggregate plus row accounting
func (a *Aggregator) AggregateWithStats(rows []RawRow) ([]Browser, Stats) {
	var groups []*group
	index := make(map[string]*group)
	stats := Stats{Rows: len(rows)}

	for _, row := range rows {
		vendor := row[a.Columns.Vendor]
		rawVersion := row[a.Columns.Version]
		if strings.TrimSpace(vendor) == "" || strings.TrimSpace(rawVersion) == "" {
			stats.Skipped++
			continue
		}

		identity := a.Rules.Identity(vendor, row[a.Columns.OS])
		version := a.Rules.Version(vendor, rawVersion)

		g, ok := index[identity]
		if !ok {
			g = &group{name: identity, users: make(map[string]float64)}
			index[identity] = g
			groups = append(groups, g)
		}
		if _, seen := g.users[version]; !seen {
			g.versions = append(g.versions, version)
		}
		users := ParseUsers(row[a.Columns.Users])
		if users == 0 && !isZeroCount(row[a.Columns.Users]) {
			stats.BadCounts++
		}
		g.users[version] += users
	}

	browsers := make([]Browser, 0, len(groups))
	for _, g := range groups {
		versions := make([]VersionUsage, 0, len(g.versions))
		for _, v := range g.versions {
			versions = append(versions, VersionUsage{Version: v, Users: g.users[v]})
		}
		sort.SliceStable(versions, func(i, j int) bool {
			return newerVersion(versions[i].Version, versions[j].Version)
		})
		browsers = append(browsers, Browser{Name: g.name, Versions: versions})
	}
	stats.Identities = len(browsers)
	return browsers, stats
}

func isZeroCount(raw string) bool {
	v, ok := leadingFloat(strings.ReplaceAll(raw, ",", ""))
	return ok && v == 0
}

// Flatten expands browsers into one candidate per version, preserving order
func Flatten(browsers []Browser) []Candidate {
	var candidates []Candidate
	for _, b := range browsers {
		for _, v := range b.Versions {
			candidates = append(candidates, Candidate{Name: b.Name, Usage: v})
		}
	}
	return candidates
}
