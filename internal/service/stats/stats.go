package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/runboard/internal/models"
)

// Reported values are rounded to this many decimal places
const places = 2

type Summary struct {
	Units      Units `json:"units"`
	Activities int   `json:"activities"`

	TotalDistance      decimal.Decimal  `json:"total_distance"`
	TotalHours         decimal.Decimal  `json:"total_hours"`
	AverageSpeed       decimal.Decimal  `json:"average_speed"`
	TotalElevationGain decimal.Decimal  `json:"total_elevation_gain"`
	AverageHeartrate   *decimal.Decimal `json:"average_heartrate,omitempty"`

	DistanceUnit  string `json:"distance_unit"`
	SpeedUnit     string `json:"speed_unit"`
	ElevationUnit string `json:"elevation_unit"`
}

// Summarize aggregates activities in the requested units.
// Average heart rate only counts activities that recorded one and is nil if none did.
func Summarize(activities []models.Activity, units Units) Summary {
	var (
		meters    = decimal.Zero
		seconds   = decimal.Zero
		elevation = decimal.Zero
		heartrate = decimal.Zero
		withHR    int64
	)

	for _, a := range activities {
		meters = meters.Add(decimal.NewFromFloat(a.Distance))
		seconds = seconds.Add(decimal.NewFromInt(a.MovingTime))
		if a.TotalElevationGain != nil {
			elevation = elevation.Add(decimal.NewFromFloat(*a.TotalElevationGain))
		}
		if a.AverageHeartrate != nil {
			heartrate = heartrate.Add(decimal.NewFromFloat(*a.AverageHeartrate))
			withHR++
		}
	}

	hours := seconds.Div(secondsPerHour)
	distance := units.Distance(meters)

	s := Summary{
		Units:              units,
		Activities:         len(activities),
		TotalDistance:      distance.Round(places),
		TotalHours:         hours.Round(places),
		AverageSpeed:       decimal.Zero,
		TotalElevationGain: units.Elevation(elevation).Round(places),
		DistanceUnit:       units.DistanceLabel(),
		SpeedUnit:          units.SpeedLabel(),
		ElevationUnit:      units.ElevationLabel(),
	}
	if hours.IsPositive() {
		s.AverageSpeed = distance.Div(hours).Round(places)
	}
	if withHR > 0 {
		avg := heartrate.Div(decimal.NewFromInt(withHR)).Round(places)
		s.AverageHeartrate = &avg
	}

	return s
}

// TrendPoint is one activity on the trend charts
type TrendPoint struct {
	ActivityID       int64            `json:"activity_id"`
	Date             time.Time        `json:"date"`
	AverageHeartrate *decimal.Decimal `json:"average_heartrate,omitempty"`
	ElevationGain    decimal.Decimal  `json:"elevation_gain"`
	Pace             decimal.Decimal  `json:"pace"`
}

// Trends returns one point per activity keeping input order.
// Pace is seconds per kilometer or mile.
func Trends(activities []models.Activity, units Units) []TrendPoint {
	points := make([]TrendPoint, 0, len(activities))

	for _, a := range activities {
		p := TrendPoint{
			ActivityID:    a.ID,
			Date:          a.StartDate,
			ElevationGain: decimal.Zero,
			Pace:          units.Pace(decimal.NewFromFloat(a.Distance), decimal.NewFromInt(a.MovingTime)).Round(places),
		}
		if a.TotalElevationGain != nil {
			p.ElevationGain = units.Elevation(decimal.NewFromFloat(*a.TotalElevationGain)).Round(places)
		}
		if a.AverageHeartrate != nil {
			hr := decimal.NewFromFloat(*a.AverageHeartrate).Round(places)
			p.AverageHeartrate = &hr
		}
		points = append(points, p)
	}

	return points
}
