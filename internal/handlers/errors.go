package handlers

import (
	"net/http"

	"github.com/nkiryanov/runboard/internal/handlers/middleware"
	"github.com/nkiryanov/runboard/internal/handlers/render"
	"github.com/nkiryanov/runboard/internal/logger"
)

// renderError writes service error response, unexpected failures are logged
func renderError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	status := render.AppError(w, err)
	if status >= http.StatusInternalServerError {
		l.Error("Request failed", "request_id", middleware.RequestID(r.Context()), "error", err)
	}
}
