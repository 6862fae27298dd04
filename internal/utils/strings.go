package utils

import "strings"

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Filter query parameters accept both repeated keys and comma-separated values
// (region=West,East); this is used to split the latter.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseMulti flattens repeated query values, splitting each on commas.
func ParseMulti(values []string) []string {
	var result []string
	for _, v := range values {
		result = append(result, ParseCSV(v)...)
	}
	return result
}
