package perfstats

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/cliio"
	"github.com/skaphos/perfstats/internal/model"
)

// logOutputWriteFailure records non-fatal output write/flush failures.
// Consumers often pipe into tools that close early (`head`), so these are
// logged at debug level instead of failing the command.
func logOutputWriteFailure(cmd *cobra.Command, context string, err error) {
	if err == nil {
		return
	}
	debugf(cmd, "ignored output write failure (%s): %v", context, err)
}

// reportWarnings prints in-band warnings on stderr and raises the exit code.
// Without -v at most limit warnings are listed.
func reportWarnings(cmd *cobra.Command, warnings []model.Warning, limit int) {
	if len(warnings) == 0 {
		return
	}
	raiseExitCode(exitWarning)
	if flagQuiet {
		return
	}
	if flagVerbose > 0 {
		limit = 0
	}
	logOutputWriteFailure(cmd, "warnings", cliio.WriteWarnings(cmd.ErrOrStderr(), warnings, limit))
}
