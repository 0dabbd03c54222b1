package suggest

import (
	"context"
	"errors"
)

// Sample is one observed or predicted workout
type Sample struct {
	Distance   float64 // meters
	MovingTime float64 // seconds
}

// Predictor forecasts the next workout from a chronological history.
// Window is how many trailing samples the forecast looks at.
type Predictor interface {
	Predict(ctx context.Context, history []Sample, window int) (Sample, error)
}

// WeightedMovingAverage weighs the trailing window linearly, the latest sample counts the most
type WeightedMovingAverage struct{}

func (WeightedMovingAverage) Predict(ctx context.Context, history []Sample, window int) (Sample, error) {
	if window < 1 {
		return Sample{}, errors.New("window must be positive")
	}
	if len(history) < window {
		return Sample{}, errors.New("history is shorter than window")
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	var next Sample
	var weights float64

	for i, s := range history[len(history)-window:] {
		w := float64(i + 1)
		next.Distance += w * s.Distance
		next.MovingTime += w * s.MovingTime
		weights += w
	}

	next.Distance /= weights
	next.MovingTime /= weights
	return next, nil
}
