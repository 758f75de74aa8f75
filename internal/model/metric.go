package model

import (
	"fmt"
	"strings"
)

// Metric names a numeric view over a record.
type Metric string

const (
	MetricDuration          Metric = "duration"
	MetricCPUStart          Metric = "cpu_start"
	MetricCPUEnd            Metric = "cpu_end"
	MetricCPUDelta          Metric = "cpu_delta"
	MetricRAMStart          Metric = "ram_start"
	MetricRAMEnd            Metric = "ram_end"
	MetricRAMDelta          Metric = "ram_delta"
	MetricRefTime           Metric = "ref_time"
	MetricProofSize         Metric = "proof_size"
	MetricTip               Metric = "tip"
	MetricParamsLength      Metric = "params_length"
	MetricTotalTransactions Metric = "total_transactions"
)

// AllMetrics lists every supported metric.
var AllMetrics = []Metric{
	MetricDuration,
	MetricCPUStart,
	MetricCPUEnd,
	MetricCPUDelta,
	MetricRAMStart,
	MetricRAMEnd,
	MetricRAMDelta,
	MetricRefTime,
	MetricProofSize,
	MetricTip,
	MetricParamsLength,
	MetricTotalTransactions,
}

// DefaultMetrics is the metric set summarized when none is configured.
var DefaultMetrics = []Metric{
	MetricDuration,
	MetricCPUStart,
	MetricCPUEnd,
	MetricRAMStart,
	MetricRAMEnd,
	MetricRefTime,
	MetricProofSize,
	MetricTip,
}

var metricLabels = map[Metric]string{
	MetricDuration:          "Duration (ms)",
	MetricCPUStart:          "CPU usage at start (%)",
	MetricCPUEnd:            "CPU usage at end (%)",
	MetricCPUDelta:          "CPU usage delta (pp)",
	MetricRAMStart:          "RAM usage at start (%)",
	MetricRAMEnd:            "RAM usage at end (%)",
	MetricRAMDelta:          "RAM usage delta (pp)",
	MetricRefTime:           "RefTime (gas)",
	MetricProofSize:         "Proof size",
	MetricTip:               "Tip",
	MetricParamsLength:      "Parameters length",
	MetricTotalTransactions: "Total transactions",
}

// Label is the human-readable axis label for the metric.
func (m Metric) Label() string {
	if label, ok := metricLabels[m]; ok {
		return label
	}
	return string(m)
}

// Value extracts the metric from r. The second result is false when r does not carry it.
func (m Metric) Value(r Record) (float64, bool) {
	switch m {
	case MetricDuration:
		return deref(r.Duration)
	case MetricCPUStart:
		return deref(r.CPUStart)
	case MetricCPUEnd:
		return deref(r.CPUEnd)
	case MetricCPUDelta:
		return delta(r.CPUStart, r.CPUEnd)
	case MetricRAMStart:
		return deref(r.RAMStart)
	case MetricRAMEnd:
		return deref(r.RAMEnd)
	case MetricRAMDelta:
		return delta(r.RAMStart, r.RAMEnd)
	case MetricRefTime:
		return deref(r.RefTime)
	case MetricProofSize:
		return deref(r.ProofSize)
	case MetricTip:
		return deref(r.Tip)
	case MetricParamsLength:
		return derefInt(r.ParamsLength)
	case MetricTotalTransactions:
		return derefInt(r.TotalTransactions)
	default:
		return 0, false
	}
}

// Values collects the metric over records, skipping records that do not carry it.
func (m Metric) Values(records []Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := m.Value(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// ParseMetric resolves a metric name. Dashes are accepted in place of underscores.
func ParseMetric(raw string) (Metric, error) {
	name := Metric(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	for _, m := range AllMetrics {
		if m == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", raw)
}

// ParseMetrics resolves a list of metric names, rejecting duplicates.
func ParseMetrics(raw []string) ([]Metric, error) {
	seen := make(map[Metric]struct{}, len(raw))
	out := make([]Metric, 0, len(raw))
	for _, item := range raw {
		m, err := ParseMetric(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[m]; ok {
			return nil, fmt.Errorf("metric %q listed twice", m)
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func derefInt(v *int64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

func delta(start, end *float64) (float64, bool) {
	if start == nil || end == nil {
		return 0, false
	}
	return *end - *start, true
}
