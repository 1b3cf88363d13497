package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"browsercov/domain/usage"
)

// FileSource loads vendor rules from a YAML document such as:
//
//	Safari:
//	  dot_version: true
//	  platforms:
//	    iOS: Safari iOS
//	    __default__: Safari Mac
type FileSource struct {
	Path string
}

// NewFileSource creates a rules source backed by a YAML file
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// LoadRules reads and validates the rules file
func (s *FileSource) LoadRules() (usage.Rules, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rules, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", s.Path, err)
	}
	return rules, nil
}

// DefaultSource serves the built-in rules
type DefaultSource struct{}

// LoadRules returns the built-in Safari rule
func (DefaultSource) LoadRules() (usage.Rules, error) {
	return usage.DefaultRules(), nil
}

// Decode parses YAML rules and checks each platform map has a fallback
func Decode(r io.Reader) (usage.Rules, error) {
	rules := usage.Rules{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid rules YAML: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Encode writes rules as YAML
func Encode(w io.Writer, rules usage.Rules) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rules); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}

// Merge overlays vendor rules from override onto base; override wins per vendor
func Merge(base, override usage.Rules) usage.Rules {
	merged := make(usage.Rules, len(base)+len(override))
	for vendor, rule := range base {
		merged[vendor] = rule
	}
	for vendor, rule := range override {
		merged[vendor] = rule
	}
	return merged
}
