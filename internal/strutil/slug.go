package strutil

import (
	"strings"
	"unicode"
)

// Slug lowercases s and collapses every run of non-alphanumerics into a
// single dash, trimming dashes at both ends. An empty result becomes "na".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "na"
	}
	return b.String()
}

// Truncate shortens s to max bytes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
