// Package perfstats contains the Cobra command tree for the perfstats CLI.
package perfstats

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Global flags
	flagVerbose    int
	flagQuiet      bool
	flagConfig     string
	flagNoColor    bool
	flagEnvFile    string
	flagFormatHint string
	// colorOutputEnabled is set per command execution based on output format and TTY detection.
	colorOutputEnabled bool
	// exitCode tracks the highest severity observed during a command run.
	exitCode int
	// isTerminalFD is overridable in tests.
	isTerminalFD = term.IsTerminal
	// exitFunc is overridable in tests.
	exitFunc = os.Exit
)

const (
	exitOK      = 0
	exitWarning = 1
	exitError   = 2
	exitFatal   = 3
)

var rootCmd = &cobra.Command{
	Use:   "perfstats",
	Short: "Summarize and chart API performance logs",
	Long:  "perfstats parses API performance logs (JSON or text blocks), groups requests by route and test type, prints descriptive statistics and renders charts and CSV summaries.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		applyNoColorEnv()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase output verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "override config file path")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "environment file to load (existing variables win)")
	rootCmd.PersistentFlags().StringVarP(&flagFormatHint, "format-hint", "f", "", "input log format: json, txt or auto")
}

// Execute runs the root command.
func Execute() {
	exitFunc(ExecuteWithExitCode())
}

// ExecuteWithExitCode runs the root command and returns a shell-friendly exit code.
func ExecuteWithExitCode() int {
	exitCode = exitOK
	colorOutputEnabled = false
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return exitFatal
	}
	return exitCode
}

func raiseExitCode(code int) {
	// Keep the highest severity: 0 success, 1 warning, 2 error, 3 fatal.
	if code > exitCode {
		exitCode = code
	}
}

func configOverride(_ *cobra.Command) string {
	return strings.TrimSpace(flagConfig)
}

func infof(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func debugf(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet || flagVerbose <= 0 {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	raiseExitCode(exitWarning)
	if flagQuiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}

// errorf reports a command-level error that still lets the command finish.
// It is never silenced by --quiet.
func errorf(cmd *cobra.Command, format string, args ...any) {
	raiseExitCode(exitError)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: "+format+"\n", args...)
}

// applyNoColorEnv honours `NO_COLOR`, a standard opt-out that behaves like
// --no-color. It runs again once env files are loaded.
func applyNoColorEnv() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		flagNoColor = true
	}
}

func setColorOutputMode(cmd *cobra.Command, format string) {
	colorOutputEnabled = shouldUseColorOutput(cmd, format)
}

func shouldUseColorOutput(cmd *cobra.Command, format string) bool {
	if flagNoColor || !isTabularFormat(format) {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}

func isTabularFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "table", "wide":
		return true
	default:
		return false
	}
}
