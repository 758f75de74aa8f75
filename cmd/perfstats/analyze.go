// SPDX-License-Identifier: MIT
package perfstats

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/engine"
	"github.com/skaphos/perfstats/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [INPUT...]",
	Short: "Parse logs, print statistics and render charts and CSV files",
	Long: "Runs the full pipeline: inputs (files, directories or globs) are parsed, filtered, grouped and summarized. " +
		"The summary is printed and charts, CSV tables and an optional HTML report are written to the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting analyze")
		format, _ := cmd.Flags().GetString("format")
		mode, err := parseOutputMode(format)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
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
		renderOpts, err := eng.DefaultRenderOptions()
		if err != nil {
			return err
		}
		if err := applyRenderFlags(cmd, rt, &renderOpts); err != nil {
			return err
		}

		report, err := eng.Analyze(cmd.Context(), opts)
		if err != nil {
			return handleAnalyzeError(cmd, rt, report, err)
		}
		reportWarnings(cmd, report.Warnings, rt.cfg.Defaults.MaxWarnings)

		debugf(cmd, "rendering artifacts into %s", renderOpts.Dir)
		rendered, err := eng.Render(cmd.Context(), report, renderOpts)
		if err != nil {
			return err
		}
		reportWarnings(cmd, rendered.Warnings, rt.cfg.Defaults.MaxWarnings)
		if report.Skipped > 0 {
			raiseExitCode(exitWarning)
		}

		logOutputWriteFailure(cmd, "analyze summary", writeSummary(cmd, mode, noHeaders, report, rendered))
		summaryFooter(cmd, report)
		infof(cmd, "wrote %d artifact(s) to %s", len(rendered.Artifacts), rendered.Dir)
		return nil
	},
}

// applyRenderFlags overlays the artifact flags onto the configured defaults.
func applyRenderFlags(cmd *cobra.Command, rt *runtimeConfig, opts *engine.RenderOptions) error {
	opts.Dir = rt.outputDir(cmd)
	if noCharts, _ := cmd.Flags().GetBool("no-charts"); noCharts {
		opts.Charts = false
	}
	if noCSV, _ := cmd.Flags().GetBool("no-csv"); noCSV {
		opts.CSV = false
	}
	if html, _ := cmd.Flags().GetBool("html"); html {
		opts.HTML = true
	}
	if records, _ := cmd.Flags().GetBool("records-csv"); records {
		opts.RecordsCSV = true
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if raw, _ := cmd.Flags().GetStringArray("scatter"); len(raw) > 0 {
		pairs, err := parseScatterPairs(raw)
		if err != nil {
			return err
		}
		opts.Scatter = pairs
	}
	return nil
}

// parseScatterPairs reads "X:Y" pairs, plotting Y against X.
func parseScatterPairs(raw []string) ([]engine.ScatterPair, error) {
	pairs := make([]engine.ScatterPair, 0, len(raw))
	for _, item := range raw {
		xs, ys, ok := cutPair(item)
		if !ok {
			return nil, errInvalidScatter(item)
		}
		x, err := model.ParseMetric(xs)
		if err != nil {
			return nil, err
		}
		y, err := model.ParseMetric(ys)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, engine.ScatterPair{X: x, Y: y})
	}
	return pairs, nil
}

func cutPair(raw string) (string, string, bool) {
	x, y, ok := strings.Cut(raw, ":")
	x, y = strings.TrimSpace(x), strings.TrimSpace(y)
	return x, y, ok && x != "" && y != ""
}

func errInvalidScatter(raw string) error {
	return fmt.Errorf("invalid scatter pair %q (expected X:Y, e.g. cpu_start:duration)", raw)
}

func init() {
	addFormatFlag(analyzeCmd, summaryFormatUsage)
	addNoHeadersFlag(analyzeCmd)
	addSelectionFlags(analyzeCmd)
	addGroupingFlags(analyzeCmd)
	addOutputDirFlag(analyzeCmd)
	analyzeCmd.Flags().Bool("no-charts", false, "do not render PNG charts")
	analyzeCmd.Flags().Bool("no-csv", false, "do not write CSV summaries")
	analyzeCmd.Flags().Bool("html", false, "also write an interactive HTML report")
	analyzeCmd.Flags().Bool("records-csv", false, "also write the normalized records as CSV")
	analyzeCmd.Flags().Int("concurrency", 0, "charts rendered in parallel (default from config)")
	analyzeCmd.Flags().StringArray("scatter", nil, "scatter pair X:Y plotting metric Y against X (repeatable; replaces configured pairs)")

	rootCmd.AddCommand(analyzeCmd)
}
