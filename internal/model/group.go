package model

import (
	"fmt"
	"strings"
)

// Dimension is a record attribute records can be grouped by.
type Dimension string

const (
	DimRoute    Dimension = "route"
	DimTestType Dimension = "test_type"
	DimMethod   Dimension = "method"
	DimGroupID  Dimension = "group_id"
)

// DefaultDimensions groups by route and test type.
var DefaultDimensions = []Dimension{DimRoute, DimTestType}

// ParseDimensions resolves grouping dimension names. An empty list yields the defaults.
func ParseDimensions(raw []string) ([]Dimension, error) {
	if len(raw) == 0 {
		return append([]Dimension(nil), DefaultDimensions...), nil
	}
	seen := make(map[Dimension]struct{}, len(raw))
	out := make([]Dimension, 0, len(raw))
	for _, item := range raw {
		d := Dimension(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(item)), "-", "_"))
		switch d {
		case DimRoute, DimTestType, DimMethod, DimGroupID:
		default:
			return nil, fmt.Errorf("unknown group-by dimension %q (expected route, test_type, method, group_id)", item)
		}
		if _, ok := seen[d]; ok {
			return nil, fmt.Errorf("group-by dimension %q listed twice", d)
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

// GroupKey identifies one group. Dimensions outside the grouping stay empty;
// grouped dimensions with no value hold NotAvailable.
type GroupKey struct {
	Route    string `json:"route,omitempty" yaml:"route,omitempty"`
	TestType string `json:"test_type,omitempty" yaml:"test_type,omitempty"`
	Method   string `json:"method,omitempty" yaml:"method,omitempty"`
	GroupID  string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
}

// KeyFor builds the group key of r over dims.
func KeyFor(r Record, dims []Dimension) GroupKey {
	var key GroupKey
	for _, d := range dims {
		switch d {
		case DimRoute:
			key.Route = orNA(r.Route)
		case DimTestType:
			key.TestType = orNA(r.TestType)
		case DimMethod:
			key.Method = orNA(r.Method)
		case DimGroupID:
			key.GroupID = orNA(r.GroupID)
		}
	}
	return key
}

// Value returns the key component for d.
func (k GroupKey) Value(d Dimension) string {
	switch d {
	case DimRoute:
		return k.Route
	case DimTestType:
		return k.TestType
	case DimMethod:
		return k.Method
	case DimGroupID:
		return k.GroupID
	default:
		return ""
	}
}

// Parts returns the non-empty key components in dimension order.
func (k GroupKey) Parts() []string {
	var parts []string
	for _, v := range []string{k.Route, k.TestType, k.Method, k.GroupID} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return parts
}

func (k GroupKey) String() string {
	parts := k.Parts()
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " | ")
}

// Less orders keys by route, test type, method, then group id.
func (k GroupKey) Less(o GroupKey) bool {
	switch {
	case k.Route != o.Route:
		return k.Route < o.Route
	case k.TestType != o.TestType:
		return k.TestType < o.TestType
	case k.Method != o.Method:
		return k.Method < o.Method
	default:
		return k.GroupID < o.GroupID
	}
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}

// Group is a partition cell: the records sharing one key.
type Group struct {
	Key     GroupKey `json:"key"`
	Records []Record `json:"-"`
}

// Summary holds descriptive statistics of one sample.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Mode   float64 `json:"mode" yaml:"mode"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	P95    float64 `json:"p95" yaml:"p95"`
}

// MetricSummary is the summary of one metric within a group.
type MetricSummary struct {
	Metric Metric `json:"metric"`
	Summary
}

// GroupSummary aggregates every summarized metric of one group.
type GroupSummary struct {
	Key     GroupKey `json:"key"`
	Records int      `json:"records"`
	// SuccessRate is the share of successful records among those carrying the flag.
	// Nil when no record in the group carries it.
	SuccessRate *float64        `json:"success_rate,omitempty"`
	Metrics     []MetricSummary `json:"metrics"`
}

// Metric returns the summary for m, if the group has samples for it.
func (g GroupSummary) Metric(m Metric) (MetricSummary, bool) {
	for _, ms := range g.Metrics {
		if ms.Metric == m {
			return ms, true
		}
	}
	return MetricSummary{}, false
}
