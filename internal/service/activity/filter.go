package activity

import (
	"slices"
	"strings"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/models"
)

var typeNormalizer = strings.NewReplacer("_", "", "-", "", " ", "")

// Apply returns activities matching criteria sorted by start date ascending.
// The input slice is left untouched.
//
// Activity type matches on the structured type field ignoring case, '_', '-' and spaces,
// so "weight_training" selects "WeightTraining" while "run" does not select "VirtualRun".
// Zero date bounds are not applied.
func Apply(activities []models.Activity, criteria models.FilterCriteria) []models.Activity {
	wantType := ""
	if !criteria.AllTypes() {
		wantType = normalizeType(criteria.ActivityType)
	}

	filtered := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if wantType != "" && normalizeType(a.Type) != wantType {
			continue
		}
		if !criteria.StartDate.IsZero() && a.StartDate.Before(criteria.StartDate) {
			continue
		}
		if !criteria.EndDate.IsZero() && a.StartDate.After(criteria.EndDate) {
			continue
		}
		filtered = append(filtered, a)
	}

	sortByStartDate(filtered)
	return filtered
}

// Validate rejects criteria that can never match anything
func Validate(criteria models.FilterCriteria) error {
	if !criteria.StartDate.IsZero() && !criteria.EndDate.IsZero() && criteria.EndDate.Before(criteria.StartDate) {
		return apperrors.NewValidationError("end_date", "must not be before start_date")
	}
	return nil
}

// Types lists distinct activity types in order of first appearance
func Types(activities []models.Activity) []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)

	for _, a := range activities {
		key := normalizeType(a.Type)
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		types = append(types, a.Type)
	}

	return slices.Clip(types)
}

func normalizeType(t string) string {
	return strings.ToLower(typeNormalizer.Replace(t))
}
