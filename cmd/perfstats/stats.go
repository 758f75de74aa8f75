package perfstats

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/engine"
)

var statsCmd = &cobra.Command{
	Use:   "stats [INPUT...]",
	Short: "Print grouped statistics without rendering charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		mode, err := parseOutputMode(format)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		writeCSV, _ := cmd.Flags().GetBool("csv")
		rt, err := loadRuntimeConfig(cmd)
		if err != nil {
			return err
		}
		setColorOutputMode(cmd, string(mode.kind))
		opts, err := rt.analyzeOptions(cmd, args)
		if err != nil {
			return err
		}
		eng := engine.New(rt.cfg)
		report, err := eng.Analyze(cmd.Context(), opts)
		if err != nil {
			return handleAnalyzeError(cmd, rt, report, err)
		}
		reportWarnings(cmd, report.Warnings, rt.cfg.Defaults.MaxWarnings)
		if report.Skipped > 0 {
			raiseExitCode(exitWarning)
		}

		var rendered *engine.RenderResult
		if writeCSV {
			rendered, err = eng.Render(cmd.Context(), report, engine.RenderOptions{
				Dir:         rt.outputDir(cmd),
				CSV:         true,
				Concurrency: rt.cfg.Defaults.Concurrency,
			})
			if err != nil {
				return err
			}
			reportWarnings(cmd, rendered.Warnings, rt.cfg.Defaults.MaxWarnings)
		}

		logOutputWriteFailure(cmd, "stats summary", writeSummary(cmd, mode, noHeaders, report, rendered))
		summaryFooter(cmd, report)
		if rendered != nil {
			infof(cmd, "wrote %d CSV file(s) to %s", len(rendered.Artifacts), rendered.Dir)
		}
		return nil
	},
}

func init() {
	addFormatFlag(statsCmd, summaryFormatUsage)
	addNoHeadersFlag(statsCmd)
	addSelectionFlags(statsCmd)
	addGroupingFlags(statsCmd)
	addOutputDirFlag(statsCmd)
	statsCmd.Flags().Bool("csv", false, "also write summary.csv and per-metric CSV files")

	rootCmd.AddCommand(statsCmd)
}
