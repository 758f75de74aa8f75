package chart

import (
	"strings"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/strutil"
)

// ReportFile is the name of the HTML report.
const ReportFile = "report.html"

// TimeSeriesFile names the time series chart of m for one group.
func TimeSeriesFile(m model.Metric, key model.GroupKey) string {
	return "timeseries_" + strutil.Slug(string(m)) + keySuffix(key) + ".png"
}

// ScatterFile names the y-versus-x scatter chart for one group.
func ScatterFile(x, y model.Metric, key model.GroupKey) string {
	return "scatter_" + strutil.Slug(string(y)) + "_vs_" + strutil.Slug(string(x)) + keySuffix(key) + ".png"
}

// MeanFile names the cross-group bar chart of the mean of m.
func MeanFile(m model.Metric) string {
	return "mean_" + strutil.Slug(string(m)) + ".png"
}

func keySuffix(key model.GroupKey) string {
	parts := key.Parts()
	if len(parts) == 0 {
		return "_all"
	}
	slugs := make([]string, 0, len(parts))
	for _, p := range parts {
		slugs = append(slugs, strutil.Slug(p))
	}
	return "_" + strings.Join(slugs, "_")
}
