package app

import (
	"browsercov/adapters/rules"
	"browsercov/domain/usage"
	"browsercov/internal/errors"
	"browsercov/ports"
)

// LoadRules merges rule sources in order; later sources override earlier ones per vendor
func LoadRules(sources ...ports.RulesSource) (usage.Rules, error) {
	merged := usage.Rules{}
	for _, src := range sources {
		r, err := src.LoadRules()
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		merged = rules.Merge(merged, r)
	}
	return merged, nil
}

// RulesFromFile returns the built-in rules, overridden by the YAML file at path when set
func RulesFromFile(path string) (usage.Rules, error) {
	sources := []ports.RulesSource{rules.DefaultSource{}}
	if path != "" {
		sources = append(sources, rules.NewFileSource(path))
	}
	return LoadRules(sources...)
}
