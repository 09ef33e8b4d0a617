// Package health implements the liveness/readiness endpoint.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
)

// Handler handles health checks.
type Handler struct {
	log     *slog.Logger
	checker Checker
}

// Checker reports storage readiness.
type Checker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// New creates a Handler with the given logger and readiness checker.
func New(log *slog.Logger, checker Checker) *Handler {
	return &Handler{
		log:     log,
		checker: checker,
	}
}

// ServeHTTP godoc
// @Summary Health check
// @Description Returns ok when the service and its storage are ready.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response "Service is ready"
// @Failure 503 {object} response.ErrorResponse "Storage is not ready"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.checker.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("storage is not ready", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage is not ready"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
