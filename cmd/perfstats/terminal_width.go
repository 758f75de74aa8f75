// SPDX-License-Identifier: MIT
package perfstats

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaphos/perfstats/internal/strutil"
)

const (
	narrowTableWidth = 100
	tinyTableWidth   = 80
)

// Route cell limits for normal, narrow and tiny terminals. Zero keeps the
// cell whole.
const (
	routeCellNormal = 0
	routeCellNarrow = 32
	routeCellTiny   = 20
)

var getTerminalSize = term.GetSize

// terminalWidth reports the width of stdout when it is a terminal.
func terminalWidth(cmd *cobra.Command) (int, bool) {
	if cmd == nil {
		return 0, false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(file.Fd())
	if !isTerminalFD(fd) {
		return 0, false
	}
	width, _, err := getTerminalSize(fd)
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

func adaptiveCellLimit(cmd *cobra.Command, normal, narrow, tiny int) int {
	width, ok := terminalWidth(cmd)
	if !ok {
		return normal
	}
	return cellLimitForWidth(width, normal, narrow, tiny)
}

func cellLimitForWidth(width, normal, narrow, tiny int) int {
	switch {
	case width < tinyTableWidth && tiny > 0:
		return tiny
	case width < narrowTableWidth && narrow > 0:
		return narrow
	default:
		return normal
	}
}

// fitCell shortens value to limit bytes. Wide output never truncates.
func fitCell(value string, wide bool, limit int) string {
	if wide || limit <= 0 {
		return value
	}
	return strutil.Truncate(value, limit)
}
