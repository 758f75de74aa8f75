// SPDX-License-Identifier: MIT
package perfstats

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/cliio"
	"github.com/skaphos/perfstats/internal/engine"
	"github.com/skaphos/perfstats/internal/manifest"
	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/tableutil"
	"github.com/skaphos/perfstats/internal/termstyle"
)

// summaryRow is one (group, metric) line of the console summary.
type summaryRow struct {
	Group       string         `json:"group"`
	Key         model.GroupKey `json:"key"`
	Metric      model.Metric   `json:"metric"`
	Records     int            `json:"records"`
	SuccessRate *float64       `json:"success_rate,omitempty"`
	model.Summary
}

type summaryOutput struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Inputs      []string             `json:"inputs"`
	GroupBy     []model.Dimension    `json:"group_by"`
	Parsed      int                  `json:"parsed"`
	Filtered    int                  `json:"filtered"`
	Skipped     int                  `json:"skipped"`
	Warnings    int                  `json:"warnings"`
	Groups      []model.GroupSummary `json:"groups"`
	Rows        []summaryRow         `json:"rows"`
	OutputDir   string               `json:"output_dir,omitempty"`
	Artifacts   []manifest.Entry     `json:"artifacts,omitempty"`
}

func newSummaryOutput(report *engine.Report, rendered *engine.RenderResult) summaryOutput {
	out := summaryOutput{
		GeneratedAt: report.GeneratedAt,
		Inputs:      report.Inputs,
		GroupBy:     report.Dimensions,
		Parsed:      report.Parsed,
		Filtered:    report.Filtered,
		Skipped:     report.Skipped,
		Warnings:    len(report.Warnings),
		Groups:      report.Summaries,
		Rows:        summaryRows(report.Summaries),
	}
	if rendered != nil {
		out.OutputDir = rendered.Dir
		out.Artifacts = rendered.Artifacts
		out.Warnings += len(rendered.Warnings)
	}
	return out
}

func summaryRows(summaries []model.GroupSummary) []summaryRow {
	var rows []summaryRow
	for _, gs := range summaries {
		for _, ms := range gs.Metrics {
			rows = append(rows, summaryRow{
				Group:       gs.Key.String(),
				Key:         gs.Key,
				Metric:      ms.Metric,
				Records:     gs.Records,
				SuccessRate: gs.SuccessRate,
				Summary:     ms.Summary,
			})
		}
	}
	return rows
}

// writeSummary prints the report in the requested mode.
func writeSummary(cmd *cobra.Command, mode outputMode, noHeaders bool, report *engine.Report, rendered *engine.RenderResult) error {
	switch mode.kind {
	case outputKindJSON:
		return cliio.WriteJSON(cmd.OutOrStdout(), newSummaryOutput(report, rendered))
	case outputKindCustomColumns:
		return writeCustomColumnsOutput(cmd, newSummaryOutput(report, rendered), mode.expr, noHeaders)
	default:
		return writeSummaryTable(cmd, report, noHeaders, mode.wide())
	}
}

func writeSummaryTable(cmd *cobra.Command, report *engine.Report, noHeaders, wide bool) error {
	headers := make([]string, 0, len(report.Dimensions)+11)
	for _, d := range report.Dimensions {
		headers = append(headers, strings.ToUpper(string(d)))
	}
	headers = append(headers, "METRIC", "N", "MEAN", "MEDIAN", "P95", "SUCCESS")
	if wide {
		headers = append(headers, "MODE", "MIN", "MAX", "STDDEV", "RECORDS")
	}

	limit := adaptiveCellLimit(cmd, routeCellNormal, routeCellNarrow, routeCellTiny)
	var rows [][]string
	for _, gs := range report.Summaries {
		success := termstyle.Colorize(colorOutputEnabled, tableutil.FormatRatio(gs.SuccessRate), termstyle.ForSuccessRate(gs.SuccessRate))
		for _, ms := range gs.Metrics {
			row := make([]string, 0, len(headers))
			for _, d := range report.Dimensions {
				row = append(row, fitCell(gs.Key.Value(d), wide, limit))
			}
			s := ms.Summary
			row = append(row,
				string(ms.Metric),
				strconv.Itoa(s.Count),
				tableutil.FormatFloat(s.Mean, 2),
				tableutil.FormatFloat(s.Median, 2),
				tableutil.FormatFloat(s.P95, 2),
				success,
			)
			if wide {
				row = append(row,
					tableutil.FormatFloat(s.Mode, 2),
					tableutil.FormatFloat(s.Min, 2),
					tableutil.FormatFloat(s.Max, 2),
					tableutil.FormatFloat(s.StdDev, 2),
					strconv.Itoa(gs.Records),
				)
			}
			rows = append(rows, row)
		}
	}
	return cliio.WriteTable(cmd.OutOrStdout(), true, noHeaders, headers, rows)
}

func summaryFooter(cmd *cobra.Command, report *engine.Report) {
	infof(cmd, "%d record(s) in %d group(s) from %d input(s); %d skipped, %d filtered out",
		len(report.Records), len(report.Summaries), len(report.Inputs), report.Skipped, report.Filtered)
}
