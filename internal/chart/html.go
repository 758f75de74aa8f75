package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/sortutil"
)

// HTMLReport renders one page holding, per metric, a line chart over time
// with one series per group and a bar chart of the group means.
func HTMLReport(w io.Writer, title string, groups []model.Group, summaries []model.GroupSummary, metrics []model.Metric) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	for _, m := range metrics {
		if line := metricLine(m, groups); line != nil {
			page.AddCharts(line)
		}
		if bar := meanBar(m, summaries); bar != nil {
			page.AddCharts(bar)
		}
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

func metricLine(m model.Metric, groups []model.Group) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: m.Label(), Subtitle: "over time, per group"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: m.Label()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
		charts.WithAnimation(false),
	)
	series := 0
	for _, g := range groups {
		records := append([]model.Record(nil), g.Records...)
		sortutil.SortRecordsByTime(records)
		var data []opts.LineData
		for _, r := range records {
			v, ok := m.Value(r)
			if !ok || r.Time.IsZero() {
				continue
			}
			data = append(data, opts.LineData{Value: []interface{}{r.Time.UnixMilli(), v}})
		}
		if len(data) == 0 {
			continue
		}
		line.AddSeries(g.Key.String(), data)
		series++
	}
	if series == 0 {
		return nil
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line
}

func meanBar(m model.Metric, summaries []model.GroupSummary) *charts.Bar {
	var labels []string
	var data []opts.BarData
	for _, gs := range summaries {
		ms, ok := gs.Metric(m)
		if !ok {
			continue
		}
		labels = append(labels, gs.Key.String())
		data = append(data, opts.BarData{Value: ms.Mean})
	}
	if len(data) == 0 {
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Mean " + m.Label()}),
		charts.WithYAxisOpts(opts.YAxis{Name: m.Label()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithAnimation(false),
	)
	bar.SetXAxis(labels).AddSeries("mean", data)
	return bar
}
