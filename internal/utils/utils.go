package utils

import (
	"strings"
)

// CompactStrings trims every entry and drops blanks and case-insensitive duplicates.
func CompactStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// JoinOrNone joins values with ", " and renders an empty list as "none".
func JoinOrNone(values []string) string {
	values = CompactStrings(values)
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// TruncateForLog collapses runs of whitespace into single spaces and cuts the
// result to limit runes, marking a cut with "...". Model output often spans
// many lines; previews stay on one log line.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
