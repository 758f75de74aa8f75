package stats

import (
	"sort"

	"github.com/skaphos/perfstats/internal/model"
)

// GroupBy partitions records by their key over dims. Every record lands in
// exactly one group. Groups are ordered by key; records keep input order.
func GroupBy(records []model.Record, dims []model.Dimension) []model.Group {
	index := make(map[model.GroupKey]int)
	var groups []model.Group
	for _, r := range records {
		key := model.KeyFor(r, dims)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.Group{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Less(groups[j].Key)
	})
	return groups
}

// Summarize describes each metric within each group. Metrics without samples
// in a group are left out of that group's summary.
func Summarize(groups []model.Group, metrics []model.Metric) []model.GroupSummary {
	out := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		gs := model.GroupSummary{
			Key:         g.Key,
			Records:     len(g.Records),
			SuccessRate: SuccessRate(g.Records),
		}
		for _, m := range metrics {
			s, err := Describe(m.Values(g.Records))
			if err != nil {
				continue
			}
			gs.Metrics = append(gs.Metrics, model.MetricSummary{Metric: m, Summary: s})
		}
		out = append(out, gs)
	}
	return out
}

// SuccessRate is the share of successes among records carrying the flag,
// or nil when none does.
func SuccessRate(records []model.Record) *float64 {
	var flagged, ok int
	for _, r := range records {
		if r.Success == nil {
			continue
		}
		flagged++
		if *r.Success {
			ok++
		}
	}
	if flagged == 0 {
		return nil
	}
	rate := float64(ok) / float64(flagged)
	return &rate
}

// Overall summarizes metric across every group, for cross-group views.
func Overall(groups []model.Group, metric model.Metric) (model.Summary, error) {
	var values []float64
	for _, g := range groups {
		values = append(values, metric.Values(g.Records)...)
	}
	return Describe(values)
}
