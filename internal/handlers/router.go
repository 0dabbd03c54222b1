package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/runboard/internal/handlers/middleware"
	"github.com/nkiryanov/runboard/internal/logger"
	"github.com/nkiryanov/runboard/internal/models"
	"github.com/nkiryanov/runboard/internal/service/activity"
	"github.com/nkiryanov/runboard/internal/service/stats"
	"github.com/nkiryanov/runboard/internal/service/suggest"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	dashboard dashboardService,
	authorizer authorizer,
	states stateSigner,
	suggester suggestService,
	logger logger.Logger,
) http.Handler {
	auth := http.NewServeMux()
	auth.Handle("GET /strava", handleAuthRedirect(authorizer, states, logger))
	auth.Handle("GET /strava/callback", handleAuthCallback(dashboard, states, logger))

	api := http.NewServeMux()
	api.Handle("GET /state", handleState(dashboard))
	api.Handle("POST /filters", handleApplyFilters(dashboard, logger))
	api.Handle("POST /activities/more", handleLoadMore(dashboard, logger))
	api.Handle("GET /summary", handleSummary(dashboard))
	api.Handle("GET /trends", handleTrends(dashboard))
	api.Handle("GET /suggestion", handleSuggestion(dashboard, suggester, logger))

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", auth))
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type dashboardService interface {
	// Exchange code, persist credential and load the first page
	// Has to return *apperrors.AuthError if code is rejected
	Authenticate(ctx context.Context, code string) error

	// Reset collected activities and load the first page for new criteria
	// Has to return *apperrors.ValidationError for criteria that never match
	ApplyFilters(ctx context.Context, criteria models.FilterCriteria) error

	// Load next page
	// Has to return apperrors.ErrFetchInProgress if a request is outstanding
	LoadMoreActivities(ctx context.Context) error

	Snapshot() activity.Snapshot
}

type authorizer interface {
	AuthCodeURL(state string) string
}

type stateSigner interface {
	Issue() (string, error)
	Verify(state string) error
}

type suggestService interface {
	Suggest(ctx context.Context, activities []models.Activity, units stats.Units) (suggest.Suggestion, error)
}
