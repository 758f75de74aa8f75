// SPDX-License-Identifier: MIT

// Package chart renders PNG charts with go-chart and the HTML report with
// go-echarts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/sortutil"
)

// ErrTooFewPoints is returned when a series has fewer than two distinct x values.
var ErrTooFewPoints = errors.New("fewer than two distinct x values")

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// Options sizes a rendered chart.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// TimeSeries draws metric m over time for records. Records without a time or
// a value for m are left out.
func TimeSeries(w io.Writer, title string, m model.Metric, records []model.Record, opts Options) error {
	sorted := append([]model.Record(nil), records...)
	sortutil.SortRecordsByTime(sorted)

	var xs []time.Time
	var ys []float64
	distinct := map[int64]struct{}{}
	for _, r := range sorted {
		v, ok := m.Value(r)
		if !ok || r.Time.IsZero() {
			continue
		}
		xs = append(xs, r.Time)
		ys = append(ys, v)
		distinct[r.Time.UnixNano()] = struct{}{}
	}
	if len(distinct) < 2 {
		return fmt.Errorf("time series of %s: %w", m, ErrTooFewPoints)
	}

	width, height := opts.size()
	graph := gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: timeFormatter(xs[0], xs[len(xs)-1]),
		},
		YAxis: gochart.YAxis{
			Name:  m.Label(),
			Range: valueRange(ys),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    m.Label(),
				XValues: xs,
				YValues: ys,
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render time series of %s: %w", m, err)
	}
	return nil
}

// Scatter draws y against x for records carrying both metrics.
func Scatter(w io.Writer, title string, x, y model.Metric, records []model.Record, opts Options) error {
	var xs, ys []float64
	distinct := map[float64]struct{}{}
	for _, r := range records {
		xv, okX := x.Value(r)
		yv, okY := y.Value(r)
		if !okX || !okY {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
		distinct[xv] = struct{}{}
	}
	if len(distinct) < 2 {
		return fmt.Errorf("scatter of %s vs %s: %w", y, x, ErrTooFewPoints)
	}

	width, height := opts.size()
	graph := gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Name: x.Label()},
		YAxis: gochart.YAxis{
			Name:  y.Label(),
			Range: valueRange(ys),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name: y.Label() + " vs " + x.Label(),
				Style: gochart.Style{
					StrokeWidth: gochart.Disabled,
					DotWidth:    5,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render scatter of %s vs %s: %w", y, x, err)
	}
	return nil
}

// MeanBars draws one bar per group holding the mean of m. Groups without
// samples for m are left out.
func MeanBars(w io.Writer, m model.Metric, summaries []model.GroupSummary, opts Options) error {
	var bars []gochart.Value
	var means []float64
	for _, gs := range summaries {
		ms, ok := gs.Metric(m)
		if !ok {
			continue
		}
		bars = append(bars, gochart.Value{Value: ms.Mean, Label: gs.Key.String()})
		means = append(means, ms.Mean)
	}
	if len(bars) == 0 {
		return fmt.Errorf("mean of %s: %w", m, ErrTooFewPoints)
	}

	width, height := opts.size()
	barWidth := width / (2 * len(bars))
	if barWidth > 80 {
		barWidth = 80
	}
	if barWidth < 10 {
		barWidth = 10
	}
	graph := gochart.BarChart{
		Title:      "Mean " + m.Label(),
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.YAxis{Range: barRange(means)},
		Bars:       bars,
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render mean of %s: %w", m, err)
	}
	return nil
}

// valueRange pads a flat series so the y axis has a non-zero span.
func valueRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := bounds(ys)
	if hi-lo == 0 {
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// barRange always includes zero so bars grow from the axis.
func barRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := bounds(ys)
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)
	if hi-lo == 0 {
		hi = 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func bounds(ys []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	return lo, hi
}

// timeFormatter labels ticks with the clock time, adding the date when the
// series spans more than a day.
func timeFormatter(first, last time.Time) gochart.ValueFormatter {
	layout := "15:04:05"
	if last.Sub(first) > 24*time.Hour {
		layout = "01-02 15:04"
	}
	return func(v interface{}) string {
		switch typed := v.(type) {
		case float64:
			return time.Unix(0, int64(typed)).UTC().Format(layout)
		case time.Time:
			return typed.UTC().Format(layout)
		default:
			return fmt.Sprint(v)
		}
	}
}
