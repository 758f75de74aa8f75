// SPDX-License-Identifier: MIT
package termstyle

import "github.com/liggitt/tabwriter"

const (
	Reset = "\x1b[0m"
	Green = "\x1b[32m"
	Brown = "\x1b[33m"
	Red   = "\x1b[31m"
	Blue  = "\x1b[34m"

	// Semantic aliases used by summary tables and diagnostics.
	Healthy = Green
	Warn    = Brown
	Error   = Red
	Info    = Blue
)

// Success-rate thresholds for ForSuccessRate.
const (
	HealthyRate = 0.99
	WarnRate    = 0.90
)

// Colorize wraps a value in ANSI escapes when color output is enabled.
func Colorize(enabled bool, value, color string) string {
	if !enabled || value == "" || color == "" {
		return value
	}
	// Hide ANSI sequences from tabwriter width calculations so columns align.
	esc := string([]byte{tabwriter.Escape})
	return esc + color + esc + value + esc + Reset + esc
}

// ForSuccessRate picks the color of a 0..1 success rate. Unknown rates stay plain.
func ForSuccessRate(rate *float64) string {
	switch {
	case rate == nil:
		return ""
	case *rate >= HealthyRate:
		return Healthy
	case *rate >= WarnRate:
		return Warn
	default:
		return Error
	}
}
