// SPDX-License-Identifier: MIT
package perfstats

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/cliio"
	"github.com/skaphos/perfstats/internal/engine"
	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/sortutil"
	"github.com/skaphos/perfstats/internal/tableutil"
	"github.com/skaphos/perfstats/internal/termstyle"
)

type recordsOutput struct {
	Inputs   []string        `json:"inputs"`
	Records  []model.Record  `json:"records"`
	Skipped  int             `json:"skipped"`
	Filtered int             `json:"filtered"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

var recordsCmd = &cobra.Command{
	Use:   "records [INPUT...]",
	Short: "Print the normalized records parsed from the inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		mode, err := parseOutputMode(format)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		showSkipped, _ := cmd.Flags().GetBool("show-skipped")
		sortByTime, _ := cmd.Flags().GetBool("sort-time")
		rt, err := loadRuntimeConfig(cmd)
		if err != nil {
			return err
		}
		setColorOutputMode(cmd, string(mode.kind))
		opts, err := rt.analyzeOptions(cmd, args)
		if err != nil {
			return err
		}
		report, err := engine.New(rt.cfg).Analyze(cmd.Context(), opts)
		if err != nil {
			if !showSkipped || report == nil {
				return handleAnalyzeError(cmd, rt, report, err)
			}
			// Still list why everything was skipped.
			errorf(cmd, "%v", err)
		} else if !showSkipped {
			reportWarnings(cmd, report.Warnings, rt.cfg.Defaults.MaxWarnings)
		}
		if report.Skipped > 0 || len(report.Warnings) > 0 {
			raiseExitCode(exitWarning)
		}

		records := report.Records
		if sortByTime {
			records = append([]model.Record(nil), records...)
			sortutil.SortRecordsByTime(records)
		}
		output := recordsOutput{
			Inputs:   report.Inputs,
			Records:  records,
			Skipped:  report.Skipped,
			Filtered: report.Filtered,
			Warnings: report.Warnings,
		}

		switch mode.kind {
		case outputKindJSON:
			logOutputWriteFailure(cmd, "records json", cliio.WriteJSON(cmd.OutOrStdout(), output))
		case outputKindCustomColumns:
			logOutputWriteFailure(cmd, "records custom-columns", writeCustomColumnsOutput(cmd, output, mode.expr, noHeaders))
		default:
			logOutputWriteFailure(cmd, "records table", writeRecordsTable(cmd, records, noHeaders, mode.wide()))
			if showSkipped {
				logOutputWriteFailure(cmd, "skipped table", writeWarningsTable(cmd, report.Warnings, noHeaders))
			}
		}
		infof(cmd, "%d record(s), %d skipped, %d filtered out", len(records), report.Skipped, report.Filtered)
		return nil
	},
}

func writeRecordsTable(cmd *cobra.Command, records []model.Record, noHeaders, wide bool) error {
	headers := []string{"TIME", "ROUTE", "TEST_TYPE", "DURATION_MS", "CPU_START", "RAM_START", "SUCCESS"}
	if wide {
		headers = append(headers, "METHOD", "GROUP_ID", "REF_TIME", "PROOF_SIZE", "TIP", "SOURCE")
	}
	limit := adaptiveCellLimit(cmd, routeCellNormal, routeCellNarrow, routeCellTiny)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			formatRecordTime(r.Time),
			fitCell(orDash(r.Route), wide, limit),
			orDash(r.TestType),
			optFloat(r.Duration),
			optFloat(r.CPUStart),
			optFloat(r.RAMStart),
			successCell(r.Success),
		}
		if wide {
			row = append(row,
				orDash(r.Method),
				orDash(r.GroupID),
				optFloat(r.RefTime),
				optFloat(r.ProofSize),
				optFloat(r.Tip),
				r.Source,
			)
		}
		rows = append(rows, row)
	}
	return cliio.WriteTable(cmd.OutOrStdout(), true, noHeaders, headers, rows)
}

func writeWarningsTable(cmd *cobra.Command, warnings []model.Warning, noHeaders bool) error {
	rows := make([][]string, 0, len(warnings))
	for _, w := range warnings {
		rows = append(rows, []string{w.Source, orDash(w.Field), w.Message})
	}
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		return nil
	}
	if !noHeaders {
		if _, err := out.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return cliio.WriteTable(out, false, noHeaders, []string{"SOURCE", "FIELD", "PROBLEM"}, rows)
}

func formatRecordTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func successCell(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return termstyle.Colorize(colorOutputEnabled, "yes", termstyle.Healthy)
	default:
		return termstyle.Colorize(colorOutputEnabled, "no", termstyle.Error)
	}
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return tableutil.FormatFloat(*v, 2)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func init() {
	addFormatFlag(recordsCmd, "output format: table, wide, json, custom-columns=NAME:PATH,...")
	addNoHeadersFlag(recordsCmd)
	addSelectionFlags(recordsCmd)
	recordsCmd.Flags().Bool("show-skipped", false, "list skipped records and ignored fields after the records")
	recordsCmd.Flags().Bool("sort-time", false, "order records by time instead of input order")

	rootCmd.AddCommand(recordsCmd)
}
