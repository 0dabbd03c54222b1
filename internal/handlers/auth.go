package handlers

import (
	"net/http"

	"github.com/nkiryanov/runboard/internal/handlers/render"
	"github.com/nkiryanov/runboard/internal/logger"
)

// handleAuthRedirect sends the browser to Strava consent page
func handleAuthRedirect(authorizer authorizer, states stateSigner, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := states.Issue()
		if err != nil {
			l.Error("Failed to issue oauth state", "error", err)
			render.Fail(w, render.InternalErrorType, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authorizer.AuthCodeURL(state), http.StatusFound)
	})
}

// handleAuthCallback finishes the OAuth flow Strava redirected back to
func handleAuthCallback(dashboard dashboardService, states stateSigner, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// Strava sends 'error=access_denied' when user declines
		if reason := q.Get("error"); reason != "" {
			render.Fail(w, render.AuthErrorType, "Strava authorization declined: "+reason, http.StatusUnauthorized)
			return
		}

		err := states.Verify(q.Get("state"))
		if err != nil {
			l.Warn("OAuth callback with bad state", "error", err)
			renderError(w, r, err, l)
			return
		}

		code := q.Get("code")
		if code == "" {
			render.Fail(w, render.BadRequestErrorType, "Authorization code is missing", http.StatusBadRequest)
			return
		}

		err = dashboard.Authenticate(r.Context(), code)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, dashboard.Snapshot())
	})
}
