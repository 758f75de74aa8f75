package parser

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var absentValues = map[string]struct{}{
	"":          {},
	"n/a":       {},
	"na":        {},
	"null":      {},
	"nil":       {},
	"none":      {},
	"undefined": {},
}

// IsAbsent reports whether v is a missing-value placeholder.
func IsAbsent(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		_, ok := absentValues[strings.ToLower(strings.TrimSpace(typed))]
		return ok
	default:
		return false
	}
}

// ParseNumber converts v to a finite float. Strings may carry thousands
// separators ("1,234,567") and surrounding spaces. NaN and infinities are
// rejected.
func ParseNumber(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	if s, ok := v.(string); ok {
		cleaned := cleanNumeric(s)
		if cleaned == "" {
			return 0, fmt.Errorf("empty number")
		}
		f, err = cast.ToFloat64E(cleaned)
	} else {
		f, err = cast.ToFloat64E(v)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return f, nil
}

// ParseInt converts v to an integer, rejecting fractional values.
func ParseInt(v any) (int64, error) {
	f, err := ParseNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	return int64(f), nil
}

// ParsePercent converts "45%", "45.5 %" or a bare number to its numeric value.
func ParsePercent(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return ParseNumber(v)
	}
	return ParseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

var durationPattern = regexp.MustCompile(`^([-+]?[0-9][0-9,_]*(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?|[-+]?\.[0-9]+)\s*([a-zµ]*)$`)

var durationUnits = map[string]float64{
	"":             1,
	"ms":           1,
	"msec":         1,
	"millis":       1,
	"millisecond":  1,
	"milliseconds": 1,
	"s":            1000,
	"sec":          1000,
	"secs":         1000,
	"second":       1000,
	"seconds":      1000,
	"m":            60000,
	"min":          60000,
	"us":           1e-3,
	"µs":           1e-3,
	"micros":       1e-3,
	"ns":           1e-6,
}

// ParseDuration converts a duration to milliseconds. "120 ms" and 120 both
// yield 120; "1.5 s" yields 1500.
func ParseDuration(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return ParseNumber(v)
	}
	m := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	scale, ok := durationUnits[m[2]]
	if !ok {
		return 0, fmt.Errorf("unknown duration unit %q", m[2])
	}
	n, err := ParseNumber(m[1])
	if err != nil {
		return 0, err
	}
	if ms := n * scale; !math.IsInf(ms, 0) {
		return ms, nil
	}
	return 0, fmt.Errorf("duration %q out of range", s)
}

// ParseBool accepts Yes/No, true/false and 1/0 in any case.
func ParseBool(v any) (bool, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToBoolE(v)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "ok", "success":
		return true, nil
	case "no", "n", "false", "0", "fail", "failed":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// ParseTime accepts RFC 3339 and the layouts cast understands. Numeric values
// are unix timestamps, in milliseconds when large enough to be.
func ParseTime(v any) (time.Time, error) {
	switch typed := v.(type) {
	case float64:
		return unixTime(typed), nil
	case int64:
		return unixTime(float64(typed)), nil
	case string:
		t, err := cast.ToTimeE(strings.TrimSpace(typed))
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	default:
		t, err := cast.ToTimeE(v)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
}

func unixTime(n float64) time.Time {
	if math.Abs(n) >= 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}

func cleanNumeric(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ',', '_', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
