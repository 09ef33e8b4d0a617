// Package review implements the admin HTTP handler deciding a pending
// payment request.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/http/middlewarectx"
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles payment reviews.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the review business logic.
type Service interface {
	Review(ctx context.Context, requestID string, review models.DummyPaymentReview, reviewerUID string) (*models.PaymentRequest, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Review a payment request
// @Description Approves or rejects a pending payment request. Approval applies the grant atomically. Admin only.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param request body models.DummyPaymentReview true "Decision and optional comment"
// @Success 200 {object} map[string]any "Reviewed request"
// @Failure 400 {object} response.ErrorResponse "Malformed id or invalid JSON"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "Request not found"
// @Failure 409 {object} response.ErrorResponse "Request already processed"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /payments/{id}/review [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.review"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Error("malformed request id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed request id"))
		return
	}

	var req models.DummyPaymentReview
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	reviewerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	request, err := h.service.Review(r.Context(), id, req, reviewerUID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment request not found"))
		case errors.Is(err, apperr.ErrAlreadyProcessed):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("payment request already processed"))
		default:
			log.Error("failed to review payment request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not review payment request"))
		}
		return
	}

	log.Info("payment request reviewed",
		slog.String("payment_request_id", id),
		slog.String("decision", req.Decision))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request": request,
	}))
}
