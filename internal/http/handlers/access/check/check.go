// Package check implements the HTTP handler exposing the access decision for
// a report without charging quota. It sits behind the optional auth
// middleware so anonymous clients get a decision for free reports too.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/http/middlewarectx"
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles access checks.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the access decision business logic.
type Service interface {
	CheckAccess(ctx context.Context, userUID, reportID string) (*models.AccessDecision, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Check report access
// @Description Returns whether the caller may open the report and why not otherwise. Never charges quota.
// @Tags Reports
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} map[string]any "Access decision"
// @Failure 400 {object} response.ErrorResponse "Malformed id"
// @Failure 404 {object} response.ErrorResponse "Report not found"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /reports/{id}/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Error("malformed report id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed report id"))
		return
	}

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	decision, err := h.service.CheckAccess(r.Context(), userUID, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("report not found"))
			return
		}
		log.Error("failed to check access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check access"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"decision": decision,
	}))
}
