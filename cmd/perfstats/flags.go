package perfstats

import "github.com/spf13/cobra"

const (
	summaryFormatUsage = "output format: table, wide, json, custom-columns=NAME:PATH,..."
	noHeadersUsage     = "when using table format, do not print headers"
	groupByUsage       = "comma-separated grouping dimensions: route, test_type, method, group_id"
	metricsUsage       = "comma-separated metrics: duration, cpu_start, cpu_end, cpu_delta, ram_start, ram_end, ram_delta, ref_time, proof_size, tip, params_length, total_transactions"
	routeUsage         = "route pattern to keep (repeatable; doublestar, matched against path and \"METHOD /path\", braces allowed)"
	excludeRouteUsage  = "route pattern to drop (repeatable)"
	timeWindowUsage    = "RFC 3339 timestamp or unix seconds"
)

func addFormatFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("format", "o", "table", usage)
}

func addNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-headers", false, noHeadersUsage)
}

// addSelectionFlags registers the input, grouping and filter flags shared by
// analyze, stats and records.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("exclude", "", "comma-separated glob patterns of input files to skip")
	cmd.Flags().Bool("follow-symlinks", false, "follow symlinked directories when walking inputs")
	cmd.Flags().StringArray("route", nil, routeUsage)
	cmd.Flags().StringArray("exclude-route", nil, excludeRouteUsage)
	cmd.Flags().String("test-type", "", "comma-separated test types to keep")
	cmd.Flags().String("method", "", "comma-separated HTTP methods to keep")
	cmd.Flags().Bool("success-only", false, "keep only successful transactions")
	cmd.Flags().Bool("failed-only", false, "keep only failed transactions")
	cmd.Flags().String("since", "", "drop records before this time ("+timeWindowUsage+")")
	cmd.Flags().String("until", "", "drop records after this time ("+timeWindowUsage+")")
}

func addGroupingFlags(cmd *cobra.Command) {
	cmd.Flags().String("group-by", "", groupByUsage)
	cmd.Flags().String("metrics", "", metricsUsage)
}

func addOutputDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "", "directory for generated artifacts (default from config, then the working directory)")
}
