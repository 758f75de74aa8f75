// SPDX-License-Identifier: MIT
// Package stats filters, groups and summarizes records.
package stats

import (
	"errors"

	mstats "github.com/montanaflynn/stats"

	"github.com/skaphos/perfstats/internal/model"
)

// ErrNoSamples is returned when a summary is requested over no values.
var ErrNoSamples = errors.New("no samples")

// Describe computes the descriptive statistics of values. The standard
// deviation is the population one; p95 uses the nearest-rank method.
func Describe(values []float64) (model.Summary, error) {
	if len(values) == 0 {
		return model.Summary{}, ErrNoSamples
	}
	data := mstats.Float64Data(values)
	s := model.Summary{Count: len(values), Mode: Mode(values)}
	steps := []struct {
		dst *float64
		fn  func(mstats.Float64Data) (float64, error)
	}{
		{&s.Mean, mstats.Mean},
		{&s.Median, mstats.Median},
		{&s.Min, mstats.Min},
		{&s.Max, mstats.Max},
		{&s.StdDev, mstats.StandardDeviation},
		{&s.P95, func(d mstats.Float64Data) (float64, error) { return mstats.PercentileNearestRank(d, 95) }},
	}
	for _, step := range steps {
		v, err := step.fn(data)
		if err != nil {
			return model.Summary{}, err
		}
		*step.dst = v
	}
	return s, nil
}

// Mode returns the most frequent value. Ties go to the value seen first.
// It returns 0 for an empty slice.
func Mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	top := 0
	for _, v := range values {
		counts[v]++
		top = max(top, counts[v])
	}
	for _, v := range values {
		if counts[v] == top {
			return v
		}
	}
	return 0
}
