package stats

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/runboard/internal/apperrors"
)

type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

var (
	metersPerKilometer = decimal.NewFromInt(1000)
	metersPerMile      = decimal.RequireFromString("1609.34")
	milesPerKilometer  = decimal.RequireFromString("0.621371")
	feetPerMeter       = decimal.RequireFromString("3.28084")
	secondsPerHour     = decimal.NewFromInt(3600)
)

// ParseUnits accepts "metric" or "imperial" in any case, empty means metric
func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case "", Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	default:
		return "", apperrors.NewValidationError("units", "must be metric or imperial")
	}
}

// Distance converts meters to kilometers or miles
func (u Units) Distance(meters decimal.Decimal) decimal.Decimal {
	km := meters.Div(metersPerKilometer)
	if u == Imperial {
		return km.Mul(milesPerKilometer)
	}
	return km
}

// Elevation converts meters to meters or feet
func (u Units) Elevation(meters decimal.Decimal) decimal.Decimal {
	if u == Imperial {
		return meters.Mul(feetPerMeter)
	}
	return meters
}

// Pace is seconds per kilometer or mile, zero when nothing was covered
func (u Units) Pace(meters decimal.Decimal, seconds decimal.Decimal) decimal.Decimal {
	if !meters.IsPositive() {
		return decimal.Zero
	}

	per := metersPerKilometer
	if u == Imperial {
		per = metersPerMile
	}
	return seconds.Div(meters.Div(per))
}

func (u Units) DistanceLabel() string {
	if u == Imperial {
		return "mi"
	}
	return "km"
}

func (u Units) SpeedLabel() string {
	if u == Imperial {
		return "mph"
	}
	return "km/h"
}

func (u Units) ElevationLabel() string {
	if u == Imperial {
		return "ft"
	}
	return "m"
}
