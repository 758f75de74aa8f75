// SPDX-License-Identifier: MIT
// Package export writes summaries and records as CSV tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/strutil"
)

// File names of the fixed tables.
const (
	SummaryFile = "summary.csv"
	RecordsFile = "records.csv"
)

var summaryColumns = []string{"count", "mean", "median", "mode", "min", "max", "stddev", "p95"}

// MetricFile names the per-metric table.
func MetricFile(m model.Metric) string {
	return "stats_" + strutil.Slug(string(m)) + ".csv"
}

// WriteSummary writes one row per (group, metric).
func WriteSummary(w io.Writer, summaries []model.GroupSummary, dims []model.Dimension) error {
	cw := csv.NewWriter(w)
	header := dimensionHeader(dims)
	header = append(header, "metric", "records", "success_rate")
	header = append(header, summaryColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, gs := range summaries {
		for _, ms := range gs.Metrics {
			row := keyCells(gs.Key, dims)
			row = append(row, string(ms.Metric), strconv.Itoa(gs.Records), ratio(gs.SuccessRate))
			row = append(row, summaryCells(ms.Summary)...)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetric writes one row per group for metric m. Groups without samples
// for m are left out.
func WriteMetric(w io.Writer, summaries []model.GroupSummary, m model.Metric, dims []model.Dimension) error {
	cw := csv.NewWriter(w)
	header := append(dimensionHeader(dims), summaryColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, gs := range summaries {
		ms, ok := gs.Metric(m)
		if !ok {
			continue
		}
		if err := cw.Write(append(keyCells(gs.Key, dims), summaryCells(ms.Summary)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecords writes normalized records, one column per canonical field
// followed by the source location. Absent values are empty cells.
func WriteRecords(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(model.AllFields)+1)
	for _, f := range model.AllFields {
		header = append(header, string(f))
	}
	header = append(header, "source")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordCells(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path, including parent directories, and fills it with fn.
func WriteFile(path string, fn func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func dimensionHeader(dims []model.Dimension) []string {
	out := make([]string, 0, len(dims)+len(summaryColumns)+3)
	for _, d := range dims {
		out = append(out, string(d))
	}
	return out
}

func keyCells(key model.GroupKey, dims []model.Dimension) []string {
	out := make([]string, 0, len(dims)+len(summaryColumns)+3)
	for _, d := range dims {
		out = append(out, key.Value(d))
	}
	return out
}

func summaryCells(s model.Summary) []string {
	return []string{
		strconv.Itoa(s.Count),
		num(s.Mean),
		num(s.Median),
		num(s.Mode),
		num(s.Min),
		num(s.Max),
		num(s.StdDev),
		num(s.P95),
	}
}

func recordCells(r model.Record) []string {
	out := make([]string, 0, len(model.AllFields)+1)
	for _, f := range model.AllFields {
		out = append(out, fieldCell(r, f))
	}
	return append(out, r.Source)
}

func fieldCell(r model.Record, f model.Field) string {
	switch f {
	case model.FieldTime:
		if r.Time.IsZero() {
			return ""
		}
		return r.Time.Format(time.RFC3339Nano)
	case model.FieldRequestNumber:
		return intCell(r.RequestNumber)
	case model.FieldGroupID:
		return r.GroupID
	case model.FieldTotalTransactions:
		return intCell(r.TotalTransactions)
	case model.FieldRoute:
		return r.Route
	case model.FieldMethod:
		return r.Method
	case model.FieldRefTime:
		return floatCell(r.RefTime)
	case model.FieldProofSize:
		return floatCell(r.ProofSize)
	case model.FieldTip:
		return floatCell(r.Tip)
	case model.FieldDuration:
		return floatCell(r.Duration)
	case model.FieldCPUStart:
		return floatCell(r.CPUStart)
	case model.FieldCPUEnd:
		return floatCell(r.CPUEnd)
	case model.FieldRAMStart:
		return floatCell(r.RAMStart)
	case model.FieldRAMEnd:
		return floatCell(r.RAMEnd)
	case model.FieldSuccess:
		if r.Success == nil {
			return ""
		}
		return strconv.FormatBool(*r.Success)
	case model.FieldParamsLength:
		return intCell(r.ParamsLength)
	case model.FieldTestType:
		return r.TestType
	default:
		return ""
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ratio(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func intCell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
