package handlers

import (
	"net/http"

	"github.com/nkiryanov/runboard/internal/handlers/render"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/service/stats"
)

// Statistics are computed over the filtered view

func handleSummary(dashboard dashboardService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		units, err := stats.ParseUnits(r.URL.Query().Get("units"))
		if err != nil {
			render.Fail(w, render.BadRequestErrorType, err.Error(), http.StatusBadRequest)
			return
		}

		render.JSON(w, stats.Summarize(dashboard.Snapshot().FilteredActivities, units))
	})
}

func handleTrends(dashboard dashboardService) http.Handler {
	type response struct {
		Units         stats.Units        `json:"units"`
		PaceUnit      string             `json:"pace_unit"`
		ElevationUnit string             `json:"elevation_unit"`
		Points        []stats.TrendPoint `json:"points"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		units, err := stats.ParseUnits(r.URL.Query().Get("units"))
		if err != nil {
			render.Fail(w, render.BadRequestErrorType, err.Error(), http.StatusBadRequest)
			return
		}

		render.JSON(w, response{
			Units:         units,
			PaceUnit:      "s/" + units.DistanceLabel(),
			ElevationUnit: units.ElevationLabel(),
			Points:        stats.Trends(dashboard.Snapshot().FilteredActivities, units),
		})
	})
}

func handleSuggestion(dashboard dashboardService, suggester suggestService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		units, err := stats.ParseUnits(r.URL.Query().Get("units"))
		if err != nil {
			render.Fail(w, render.BadRequestErrorType, err.Error(), http.StatusBadRequest)
			return
		}

		suggestion, err := suggester.Suggest(r.Context(), dashboard.Snapshot().FilteredActivities, units)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, suggestion)
	})
}
