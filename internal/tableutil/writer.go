package tableutil

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/liggitt/tabwriter"
)

// New creates a tabwriter with the console's default spacing settings.
func New(out io.Writer, stripEscape bool) *tabwriter.Writer {
	var flags uint
	if stripEscape {
		flags = tabwriter.StripEscape
	}
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', flags)
}

// PrintHeaders writes a tab-separated header row unless disabled.
func PrintHeaders(w io.Writer, noHeaders bool, headers ...string) error {
	if noHeaders {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(headers, "\t"))
	return err
}

// FormatFloat renders v with at most prec decimals, trimming trailing zeros.
func FormatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatRatio renders a 0..1 ratio as a percentage, or "-" when unknown.
func FormatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return FormatFloat(*v*100, 1) + "%"
}
