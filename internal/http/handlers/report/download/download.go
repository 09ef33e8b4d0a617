// Package download implements the HTTP handler that serves report PDFs.
//
// The handler sits behind the optional auth middleware: anonymous requests
// reach it with an empty identity and can still download free reports. All
// access and quota decisions happen in the service; a denial maps onto 402 or
// 403 with the deny reason and never leaks the content.
package download

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
)

// Handler handles PDF downloads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the download business logic.
type Service interface {
	Download(ctx context.Context, userUID, reportID string) ([]byte, string, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Download a report PDF
// @Description Serves the PDF when the caller has access; subscription-funded access charges one quota unit on first download.
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Report id"
// @Success 200 {file} file "PDF bytes"
// @Failure 400 {object} response.ErrorResponse "Malformed id"
// @Failure 402 {object} response.ErrorResponse "No or expired subscription"
// @Failure 403 {object} response.ErrorResponse "Quota exhausted"
// @Failure 404 {object} response.ErrorResponse "Report not found"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /reports/{id}/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.download"
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

	content, contentType, err := h.service.Download(r.Context(), userUID, id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("report not found"))
		case errors.Is(err, apperr.ErrNoSubscription):
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("no subscription"))
		case errors.Is(err, apperr.ErrSubscriptionExpired):
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("subscription expired"))
		case errors.Is(err, apperr.ErrQuotaExhausted):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("quota exhausted"))
		default:
			log.Error("failed to download report", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not download report"))
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="report-`+id+`.pdf"`)
	if _, err := w.Write(content); err != nil {
		log.Error("failed to write report content", sl.Err(err))
	}
}
