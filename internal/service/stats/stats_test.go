package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/models"
)

func ptr(v float64) *float64 {
	return &v
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s. %v", want, got, msgAndArgs)
}

var start = time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)

func fixture() []models.Activity {
	return []models.Activity{
		{ID: 1, Type: "Run", Distance: 10000, MovingTime: 3000, StartDate: start, TotalElevationGain: ptr(100), AverageHeartrate: ptr(150)},
		{ID: 2, Type: "Run", Distance: 5000, MovingTime: 1800, StartDate: start.AddDate(0, 0, 1), AverageHeartrate: ptr(160)},
		{ID: 3, Type: "Yoga", Distance: 0, MovingTime: 1800, StartDate: start.AddDate(0, 0, 2), TotalElevationGain: ptr(0)},
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    Units
		wantErr bool
	}{
		{"", Metric, false},
		{"metric", Metric, false},
		{"Imperial", Imperial, false},
		{" IMPERIAL ", Imperial, false},
		{"furlongs", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in)

			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrInvalidCriteria)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("metric", func(t *testing.T) {
		s := Summarize(fixture(), Metric)

		require.Equal(t, 3, s.Activities)
		requireDecimal(t, "15", s.TotalDistance, "km")
		requireDecimal(t, "1.83", s.TotalHours, "6600s")
		requireDecimal(t, "8.18", s.AverageSpeed, "15km / 1.8333h")
		requireDecimal(t, "100", s.TotalElevationGain)
		require.NotNil(t, s.AverageHeartrate)
		requireDecimal(t, "155", *s.AverageHeartrate, "yoga without heart rate is not counted")
		require.Equal(t, "km", s.DistanceUnit)
		require.Equal(t, "km/h", s.SpeedUnit)
		require.Equal(t, "m", s.ElevationUnit)
	})

	t.Run("imperial", func(t *testing.T) {
		s := Summarize(fixture(), Imperial)

		requireDecimal(t, "9.32", s.TotalDistance, "15 * 0.621371")
		requireDecimal(t, "1.83", s.TotalHours)
		requireDecimal(t, "5.08", s.AverageSpeed, "9.320565mi / 1.8333h")
		requireDecimal(t, "328.08", s.TotalElevationGain, "100m in feet")
		require.Equal(t, "mi", s.DistanceUnit)
		require.Equal(t, "mph", s.SpeedUnit)
		require.Equal(t, "ft", s.ElevationUnit)
	})

	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil, Metric)

		require.Zero(t, s.Activities)
		require.True(t, s.TotalDistance.IsZero())
		require.True(t, s.AverageSpeed.IsZero(), "no division by zero time")
		require.Nil(t, s.AverageHeartrate)
	})
}

func TestTrends(t *testing.T) {
	t.Run("metric", func(t *testing.T) {
		points := Trends(fixture(), Metric)

		require.Len(t, points, 3)
		require.Equal(t, int64(1), points[0].ActivityID)
		require.Equal(t, start, points[0].Date)
		requireDecimal(t, "300", points[0].Pace, "3000s over 10km")
		requireDecimal(t, "360", points[1].Pace)
		requireDecimal(t, "0", points[2].Pace, "zero distance gives zero pace")
		requireDecimal(t, "100", points[0].ElevationGain)
		requireDecimal(t, "0", points[1].ElevationGain, "missing elevation is zero")
		require.Nil(t, points[2].AverageHeartrate)
		requireDecimal(t, "150", *points[0].AverageHeartrate)
	})

	t.Run("imperial", func(t *testing.T) {
		points := Trends(fixture(), Imperial)

		requireDecimal(t, "482.8", points[0].Pace, "3000s over 6.21mi")
		requireDecimal(t, "328.08", points[0].ElevationGain)
	})

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, Trends(nil, Metric))
	})
}
