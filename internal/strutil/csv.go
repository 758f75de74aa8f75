// SPDX-License-Identifier: MIT
// Package strutil holds small string helpers shared by commands and renderers.
package strutil

import "strings"

// SplitCSV splits a comma-separated flag value, dropping blanks.
func SplitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// MergeCSV flattens flag values that may each hold comma-separated items.
func MergeCSV(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, SplitCSV(v)...)
	}
	return out
}
