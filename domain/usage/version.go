package usage

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeVersion truncates a dotted version to major ("118.0.1" -> "118")
// or, when dot is set, to major.minor ("16.4.2" -> "16.4").
func NormalizeVersion(raw string, dot bool) string {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if dot && len(parts) > 1 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}

// VersionValue returns the numeric value of a normalized version.
// ok is false when the version has no leading number, e.g. "(not set)".
func VersionValue(version string) (value float64, ok bool) {
	return leadingFloat(version)
}

// newerVersion reports whether a sorts before b, newest first.
// Versions without a numeric value sort after all numeric ones.
func newerVersion(a, b string) bool {
	va, okA := VersionValue(a)
	vb, okB := VersionValue(b)
	if okA != okB {
		return okA
	}
	return va > vb
}

// ParseUsers converts a user count such as "1,234" into a non-negative number.
// Anything unparseable counts as zero.
func ParseUsers(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	n, ok := leadingFloat(cleaned)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}

// leadingFloat parses the longest numeric prefix of s (sign, digits, one fraction)
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
