package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/runboard/internal/handlers/render"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
)

const dateLayout = "2006-01-02"

func handleState(dashboard dashboardService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, dashboard.Snapshot())
	})
}

func handleApplyFilters(dashboard dashboardService, l logger.Logger) http.Handler {
	type request struct {
		ActivityType string `json:"activity_type" validate:"max=64,activitytype"`
		StartDate    string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
		EndDate      string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		criteria, err := toCriteria(data.ActivityType, data.StartDate, data.EndDate)
		if err != nil {
			render.Fail(w, render.BadRequestErrorType, err.Error(), http.StatusBadRequest)
			return
		}

		err = dashboard.ApplyFilters(r.Context(), criteria)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, dashboard.Snapshot())
	})
}

func handleLoadMore(dashboard dashboardService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := dashboard.LoadMoreActivities(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, dashboard.Snapshot())
	})
}

// toCriteria reads calendar dates in server local time.
// End date covers the whole day.
func toCriteria(activityType string, start string, end string) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{ActivityType: activityType}
	if criteria.ActivityType == "" {
		criteria.ActivityType = models.ActivityTypeAll
	}

	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, time.Local)
		if err != nil {
			return criteria, err
		}
		criteria.StartDate = t
	}

	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, time.Local)
		if err != nil {
			return criteria, err
		}
		criteria.EndDate = t.AddDate(0, 0, 1).Add(-time.Second)
	}

	return criteria, nil
}
