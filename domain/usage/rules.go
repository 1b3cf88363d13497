package usage

import "fmt"

// DefaultPlatform is the platform map key used when a row's OS has no entry
const DefaultPlatform = "__default__"

// VendorRule adjusts identity and version granularity for one vendor.
// A vendor without a rule keeps its raw name and a major-only version.
type VendorRule struct {
	PlatformMap map[string]string `json:"platform_map,omitempty" yaml:"platforms,omitempty"`
	DotVersion  bool              `json:"dot_version" yaml:"dot_version"`
}

// Validate checks that a non-empty platform map carries the fallback entry
func (r VendorRule) Validate() error {
	if len(r.PlatformMap) == 0 {
		return nil
	}
	if _, ok := r.PlatformMap[DefaultPlatform]; !ok {
		return fmt.Errorf("platform map is missing the %q entry", DefaultPlatform)
	}
	return nil
}

// Identity returns the display name for a row of this vendor on the given OS
func (r VendorRule) Identity(vendor, os string) string {
	if len(r.PlatformMap) == 0 {
		return vendor
	}
	if name, ok := r.PlatformMap[os]; ok && name != "" {
		return name
	}
	if name := r.PlatformMap[DefaultPlatform]; name != "" {
		return name
	}
	return vendor
}

// Rules maps vendor names to their rule
type Rules map[string]VendorRule

// DefaultRules splits Safari into iOS and Mac identities and keeps its minor version
func DefaultRules() Rules {
	return Rules{
		"Safari": {
			DotVersion: true,
			PlatformMap: map[string]string{
				"iOS":           "Safari iOS",
				DefaultPlatform: "Safari Mac",
			},
		},
	}
}

// Lookup returns the rule for vendor and whether one exists
func (r Rules) Lookup(vendor string) (VendorRule, bool) {
	rule, ok := r[vendor]
	return rule, ok
}

// Validate checks every rule in the set
func (r Rules) Validate() error {
	for vendor, rule := range r {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("vendor %q: %w", vendor, err)
		}
	}
	return nil
}

// Identity applies the vendor's rule, if any, to produce the grouping key
func (r Rules) Identity(vendor, os string) string {
	rule, ok := r.Lookup(vendor)
	if !ok {
		return vendor
	}
	return rule.Identity(vendor, os)
}

// Version normalizes a raw version string using the vendor's rule
func (r Rules) Version(vendor, raw string) string {
	rule, _ := r.Lookup(vendor)
	return NormalizeVersion(raw, rule.DotVersion)
}
