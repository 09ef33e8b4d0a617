// Package read implements the public HTTP handler for report metadata by id.
package read

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
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles metadata reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the metadata read business logic.
type Service interface {
	Get(ctx context.Context, id string) (*models.Report, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get report metadata
// @Description Returns the metadata of one report. Public; the PDF itself is served by the download endpoint.
// @Tags Reports
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} map[string]any "Report metadata"
// @Failure 400 {object} response.ErrorResponse "Malformed id"
// @Failure 404 {object} response.ErrorResponse "Report not found"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /reports/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.read"
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

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("report not found"))
			return
		}
		log.Error("failed to read report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read report"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"report": report,
	}))
}
