package models

import (
	"strings"
	"time"
)

const ActivityTypeAll = "all"

// FilterCriteria narrows the aggregated activities to a view.
// Zero StartDate or EndDate means the bound is not set.
type FilterCriteria struct {
	ActivityType string    `json:"activity_type"`
	StartDate    time.Time `json:"start_date,omitzero"`
	EndDate      time.Time `json:"end_date,omitzero"`
}

func (c FilterCriteria) AllTypes() bool {
	return c.ActivityType == "" || strings.EqualFold(c.ActivityType, ActivityTypeAll)
}

// DateRange returns bounds to pass to the activities request, nil if neither bound is set
func (c FilterCriteria) DateRange() *DateRange {
	if c.StartDate.IsZero() && c.EndDate.IsZero() {
		return nil
	}
	return &DateRange{Start: c.StartDate, End: c.EndDate}
}
