// Package stats implements the admin HTTP handler for dashboard counters.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles the stats request.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the stats aggregation.
type Service interface {
	CountStats(ctx context.Context, now time.Time) (*models.AdminStats, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Dashboard counters
// @Description Returns user, report, pending request, active subscription and contact counts. Admin only.
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]any "Counters"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.CountStats(r.Context(), time.Now())
	if err != nil {
		log.Error("failed to count stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not count stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"stats": stats,
	}))
}
