package suggest

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/runboard/internal/apperrors"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
	"github.com/nkiryanov/runboard/internal/service/stats"
)

const (
	MinActivities = 10
	HistorySize   = 30
	Window        = 5
)

type Suggestion struct {
	Type              string          `json:"type"`
	Distance          decimal.Decimal `json:"distance"`
	DistanceUnit      string          `json:"distance_unit"`
	MovingTimeMinutes decimal.Decimal `json:"moving_time_minutes"`
	BasedOn           int             `json:"based_on"`
}

type Service struct {
	predictor Predictor
	logger    logger.Logger
}

func New(p Predictor, l logger.Logger) *Service {
	return &Service{predictor: p, logger: l}
}

// Suggest predicts the next workout from the latest activities.
// The suggested type is the type of the most recent activity.
func (s *Service) Suggest(ctx context.Context, activities []models.Activity, units stats.Units) (Suggestion, error) {
	if len(activities) < MinActivities {
		return Suggestion{}, fmt.Errorf("%w: have %d, need %d", apperrors.ErrNotEnoughActivities, len(activities), MinActivities)
	}

	recent := slices.Clone(activities)
	slices.SortStableFunc(recent, func(a, b models.Activity) int {
		return a.StartDate.Compare(b.StartDate)
	})
	if len(recent) > HistorySize {
		recent = recent[len(recent)-HistorySize:]
	}

	history := make([]Sample, 0, len(recent))
	for _, a := range recent {
		history = append(history, Sample{Distance: a.Distance, MovingTime: float64(a.MovingTime)})
	}

	next, err := s.predictor.Predict(ctx, history, Window)
	if err != nil {
		return Suggestion{}, fmt.Errorf("predict next workout: %w", err)
	}

	meters := decimal.NewFromFloat(max(next.Distance, 0))
	minutes := decimal.NewFromFloat(max(next.MovingTime, 0)).Div(decimal.NewFromInt(60))

	s.logger.Debug("Workout suggested", "based_on", len(history), "distance_m", next.Distance, "moving_time_s", next.MovingTime)

	return Suggestion{
		Type:              recent[len(recent)-1].Type,
		Distance:          units.Distance(meters).Round(2),
		DistanceUnit:      units.DistanceLabel(),
		MovingTimeMinutes: minutes.Round(2),
		BasedOn:           len(history),
	}, nil
}
