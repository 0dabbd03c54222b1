package models

import (
	"time"
)

// Strava returns at most this many activities per page
const PageSize = 30

// One recorded exercise session as returned by GET /athlete/activities
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Distance           float64   `json:"distance"`    // meters
	MovingTime         int64     `json:"moving_time"` // seconds
	StartDate          time.Time `json:"start_date"`
	Type               string    `json:"type"`
	TotalElevationGain *float64  `json:"total_elevation_gain,omitempty"` // meters
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`    // bpm
}

// Inclusive bounds for the activities request
type DateRange struct {
	Start time.Time
	End   time.Time
}
