package activity

import (
	"slices"

	"github.com/nkiryanov/runboard/internal/models"
)

// AppendPage merges a freshly fetched page into the accumulated activities.
// Activities already present (by id) are dropped, result is sorted by start date with ties kept in arrival order.
// hasMore is true only for a full page; an empty page returns existing as is.
// Neither input is modified.
func AppendPage(existing []models.Activity, page []models.Activity) ([]models.Activity, bool) {
	if len(page) == 0 {
		return existing, false
	}

	seen := make(map[int64]struct{}, len(existing)+len(page))
	merged := make([]models.Activity, 0, len(existing)+len(page))

	for _, batch := range [][]models.Activity{existing, page} {
		for _, a := range batch {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}

	sortByStartDate(merged)

	return merged, len(page) == models.PageSize
}

func sortByStartDate(activities []models.Activity) {
	slices.SortStableFunc(activities, func(a, b models.Activity) int {
		return a.StartDate.Compare(b.StartDate)
	})
}
