package stats_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/stats"
)

func f64(v float64) *float64 { return &v }

func flag(v bool) *bool { return &v }

var base = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func rec(route, testType string, duration float64) model.Record {
	return model.Record{Time: base, Route: route, TestType: testType, Duration: f64(duration)}
}

var _ = Describe("Describe", func() {
	It("matches hand-computed values", func() {
		s, err := stats.Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Count).To(Equal(8))
		Expect(s.Mean).To(Equal(5.0))
		Expect(s.Median).To(Equal(4.5))
		Expect(s.Mode).To(Equal(4.0))
		Expect(s.Min).To(Equal(2.0))
		Expect(s.Max).To(Equal(9.0))
		Expect(s.StdDev).To(BeNumerically("~", 2.0, 1e-9))
		Expect(s.P95).To(Equal(9.0))
	})

	It("uses the middle value for odd counts", func() {
		s, err := stats.Describe([]float64{120, 80, 100})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Median).To(Equal(100.0))
		Expect(s.Mean).To(Equal(100.0))
	})

	It("rejects empty input", func() {
		_, err := stats.Describe(nil)
		Expect(err).To(MatchError(stats.ErrNoSamples))
	})
})

var _ = Describe("Mode", func() {
	It("breaks ties by first occurrence", func() {
		Expect(stats.Mode([]float64{3, 1, 1, 3})).To(Equal(3.0))
		Expect(stats.Mode([]float64{7, 8, 9})).To(Equal(7.0))
		Expect(stats.Mode([]float64{1, 2, 2})).To(Equal(2.0))
		Expect(stats.Mode(nil)).To(Equal(0.0))
	})
})

var _ = Describe("GroupBy", func() {
	It("partitions every record exactly once", func() {
		var records []model.Record
		routes := []string{"POST /a", "GET /b", ""}
		types := []string{"sequential", "batch", ""}
		for i := 0; i < 30; i++ {
			r := rec(routes[i%3], types[(i/3)%3], float64(i))
			r.Source = fmt.Sprintf("mem:%d", i)
			records = append(records, r)
		}

		groups := stats.GroupBy(records, model.DefaultDimensions)
		seen := map[string]int{}
		total := 0
		for _, g := range groups {
			for _, r := range g.Records {
				Expect(model.KeyFor(r, model.DefaultDimensions)).To(Equal(g.Key))
				seen[r.Source]++
				total++
			}
		}
		Expect(total).To(Equal(len(records)))
		Expect(seen).To(HaveLen(len(records)))
		for src, n := range seen {
			Expect(n).To(Equal(1), src)
		}
		Expect(groups).To(HaveLen(9))
	})

	It("orders groups by key and keeps record order", func() {
		records := []model.Record{rec("POST /b", "x", 1), rec("GET /a", "x", 2), rec("POST /b", "x", 3)}
		groups := stats.GroupBy(records, model.DefaultDimensions)
		Expect(groups).To(HaveLen(2))
		Expect(groups[0].Key.Route).To(Equal("GET /a"))
		Expect(groups[1].Records).To(HaveLen(2))
		Expect(*groups[1].Records[0].Duration).To(Equal(1.0))
		Expect(*groups[1].Records[1].Duration).To(Equal(3.0))
	})

	It("puts records missing a dimension under N/A", func() {
		groups := stats.GroupBy([]model.Record{rec("GET /a", "", 1)}, model.DefaultDimensions)
		Expect(groups[0].Key.TestType).To(Equal(model.NotAvailable))
	})
})

var _ = Describe("Summarize", func() {
	It("summarizes metrics and success rate per group", func() {
		a := rec("GET /a", "batch", 10)
		a.Success = flag(true)
		b := rec("GET /a", "batch", 20)
		b.Success = flag(false)
		c := rec("GET /a", "batch", 30)
		groups := stats.GroupBy([]model.Record{a, b, c}, model.DefaultDimensions)

		summaries := stats.Summarize(groups, []model.Metric{model.MetricDuration, model.MetricCPUStart})
		Expect(summaries).To(HaveLen(1))
		gs := summaries[0]
		Expect(gs.Records).To(Equal(3))
		Expect(*gs.SuccessRate).To(Equal(0.5))
		Expect(gs.Metrics).To(HaveLen(1))

		d, ok := gs.Metric(model.MetricDuration)
		Expect(ok).To(BeTrue())
		Expect(d.Mean).To(Equal(20.0))
		_, ok = gs.Metric(model.MetricCPUStart)
		Expect(ok).To(BeFalse())
	})

	It("leaves the success rate unset without flags", func() {
		Expect(stats.SuccessRate([]model.Record{rec("GET /a", "", 1)})).To(BeNil())
	})

	It("summarizes a metric across groups", func() {
		groups := stats.GroupBy([]model.Record{rec("GET /a", "", 1), rec("GET /b", "", 3)}, model.DefaultDimensions)
		s, err := stats.Overall(groups, model.MetricDuration)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Mean).To(Equal(2.0))
	})
})

var _ = Describe("Filter", func() {
	records := []model.Record{
		{Time: base, Route: "POST /create_user", Method: "POST", TestType: "sequential", Success: flag(true)},
		{Time: base.Add(time.Minute), Route: "GET /balance", Method: "GET", TestType: "concurrent", Success: flag(false)},
		{Time: base.Add(2 * time.Minute), Route: "GET /users/42", Method: "GET", TestType: "batch"},
	}

	routes := func(rs []model.Record) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Route)
		}
		return out
	}

	It("matches route patterns against the path and the full route", func() {
		Expect(routes(stats.Filter{Routes: []string{"/users/*"}}.Apply(records))).To(Equal([]string{"GET /users/42"}))
		Expect(routes(stats.Filter{Routes: []string{"GET /**"}}.Apply(records))).To(Equal([]string{"GET /balance", "GET /users/42"}))
		Expect(routes(stats.Filter{Routes: []string{"create_*"}}.Apply(records))).To(Equal([]string{"POST /create_user"}))
		Expect(routes(stats.Filter{ExcludeRoutes: []string{"/balance"}}.Apply(records))).To(HaveLen(2))
	})

	It("filters by test type, method and outcome", func() {
		Expect(routes(stats.Filter{TestTypes: []string{"BATCH"}}.Apply(records))).To(Equal([]string{"GET /users/42"}))
		Expect(routes(stats.Filter{Methods: []string{"post"}}.Apply(records))).To(Equal([]string{"POST /create_user"}))
		Expect(routes(stats.Filter{SuccessOnly: true}.Apply(records))).To(Equal([]string{"POST /create_user"}))
		Expect(routes(stats.Filter{FailedOnly: true}.Apply(records))).To(Equal([]string{"GET /balance"}))
	})

	It("bounds by time inclusively", func() {
		f := stats.Filter{Since: base.Add(time.Minute), Until: base.Add(time.Minute)}
		Expect(routes(f.Apply(records))).To(Equal([]string{"GET /balance"}))
	})

	It("validates criteria", func() {
		Expect(stats.Filter{SuccessOnly: true, FailedOnly: true}.Validate()).To(HaveOccurred())
		Expect(stats.Filter{Since: base, Until: base.Add(-time.Hour)}.Validate()).To(HaveOccurred())
		Expect(stats.Filter{Routes: []string{"[a-"}}.Validate()).To(HaveOccurred())
		Expect(stats.Filter{Routes: []string{"/a/**"}}.Validate()).To(Succeed())
	})
})
