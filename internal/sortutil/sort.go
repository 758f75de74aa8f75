package sortutil

import (
	"sort"

	"github.com/skaphos/perfstats/internal/manifest"
	"github.com/skaphos/perfstats/internal/model"
)

// LessKeyPath provides deterministic ordering by a primary key first,
// then by path when keys are equal.
func LessKeyPath(keyI, pathI, keyJ, pathJ string) bool {
	if keyI == keyJ {
		return pathI < pathJ
	}
	return keyI < keyJ
}

// SortGroupSummaries orders summaries by group key.
func SortGroupSummaries(summaries []model.GroupSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Key.Less(summaries[j].Key)
	})
}

// SortRecordsByTime orders records by timestamp. Records with equal
// timestamps keep their relative order.
func SortRecordsByTime(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
}

// SortManifestEntries orders manifest entries by path, then type.
func SortManifestEntries(entries []manifest.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return LessKeyPath(entries[i].Path, string(entries[i].Type), entries[j].Path, string(entries[j].Type))
	})
}

// SortWarnings orders warnings by source, then field, keeping the relative
// order of warnings about the same spot.
func SortWarnings(warnings []model.Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		return LessKeyPath(warnings[i].Source, warnings[i].Field, warnings[j].Source, warnings[j].Field)
	})
}
