package export_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/export"
	"github.com/skaphos/perfstats/internal/model"
)

func readCSV(data []byte) [][]string {
	GinkgoHelper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	Expect(err).NotTo(HaveOccurred())
	return rows
}

var _ = Describe("CSV export", func() {
	rate := 0.5
	summaries := []model.GroupSummary{
		{
			Key:         model.GroupKey{Route: "POST /create_user", TestType: "sequential"},
			Records:     2,
			SuccessRate: &rate,
			Metrics: []model.MetricSummary{
				{Metric: model.MetricDuration, Summary: model.Summary{Count: 2, Mean: 100, Median: 100, Mode: 120, Min: 80, Max: 120, StdDev: 20, P95: 120}},
				{Metric: model.MetricCPUStart, Summary: model.Summary{Count: 2, Mean: 3.5, Median: 3.5, Mode: 3, Min: 3, Max: 4, StdDev: 0.5, P95: 4}},
			},
		},
		{
			Key:     model.GroupKey{Route: "GET /balance", TestType: model.NotAvailable},
			Records: 1,
			Metrics: []model.MetricSummary{
				{Metric: model.MetricDuration, Summary: model.Summary{Count: 1, Mean: 15, Median: 15, Mode: 15, Min: 15, Max: 15, P95: 15}},
			},
		},
	}

	It("writes one summary row per group and metric", func() {
		var buf bytes.Buffer
		Expect(export.WriteSummary(&buf, summaries, model.DefaultDimensions)).To(Succeed())
		rows := readCSV(buf.Bytes())
		Expect(rows).To(HaveLen(4))
		Expect(rows[0]).To(Equal([]string{"route", "test_type", "metric", "records", "success_rate", "count", "mean", "median", "mode", "min", "max", "stddev", "p95"}))
		Expect(rows[1]).To(Equal([]string{"POST /create_user", "sequential", "duration", "2", "0.5", "2", "100", "100", "120", "80", "120", "20", "120"}))
		Expect(rows[3][1]).To(Equal("N/A"))
		Expect(rows[3][4]).To(Equal(""))
	})

	It("writes a per-metric table skipping groups without samples", func() {
		var buf bytes.Buffer
		Expect(export.WriteMetric(&buf, summaries, model.MetricCPUStart, model.DefaultDimensions)).To(Succeed())
		rows := readCSV(buf.Bytes())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][:3]).To(Equal([]string{"POST /create_user", "sequential", "2"}))
		Expect(export.MetricFile(model.MetricCPUStart)).To(Equal("stats_cpu-start.csv"))
	})

	It("writes normalized records with empty cells for absent values", func() {
		d := 12.5
		ok := true
		records := []model.Record{{
			Time:     time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
			Route:    "GET /x",
			Duration: &d,
			Success:  &ok,
			Source:   "log.txt:1",
		}}
		var buf bytes.Buffer
		Expect(export.WriteRecords(&buf, records)).To(Succeed())
		rows := readCSV(buf.Bytes())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0][0]).To(Equal("time"))
		Expect(rows[0][len(rows[0])-1]).To(Equal("source"))
		byName := map[string]string{}
		for i, name := range rows[0] {
			byName[name] = rows[1][i]
		}
		Expect(byName["time"]).To(Equal("2024-10-01T12:00:00Z"))
		Expect(byName["duration"]).To(Equal("12.5"))
		Expect(byName["success"]).To(Equal("true"))
		Expect(byName["tip"]).To(Equal(""))
		Expect(byName["source"]).To(Equal("log.txt:1"))
	})

	It("creates parent directories and reports writer errors", func() {
		path := filepath.Join(GinkgoT().TempDir(), "out", export.SummaryFile)
		Expect(export.WriteFile(path, func(w io.Writer) error {
			return export.WriteSummary(w, summaries, model.DefaultDimensions)
		})).To(Succeed())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("route,test_type,metric"))

		boom := errors.New("boom")
		err = export.WriteFile(filepath.Join(GinkgoT().TempDir(), "x.csv"), func(io.Writer) error { return boom })
		Expect(err).To(MatchError(boom))
	})
})
