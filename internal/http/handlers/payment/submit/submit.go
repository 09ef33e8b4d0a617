// Package submit implements the HTTP handler for submitting a payment
// request for manual review.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/http/middlewarectx"
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles payment submissions.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the submission business logic.
type Service interface {
	Submit(ctx context.Context, userUID string, req models.DummyPaymentSubmit) (*models.PaymentRequest, error)
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
// @Summary Submit a payment request
// @Description Creates a pending payment request for a report or a subscription plan.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.DummyPaymentSubmit true "Payment details and proof"
// @Success 200 {object} map[string]any "Request created"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON or payload/type mismatch"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 404 {object} response.ErrorResponse "Report not found"
// @Failure 409 {object} response.ErrorResponse "Duplicate, already purchased or subscription active"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPaymentSubmit
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	request, err := h.service.Submit(r.Context(), userUID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment payload does not match its type"))
		case errors.Is(err, apperr.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("report not found"))
		case errors.Is(err, apperr.ErrAlreadyPurchased):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("report already purchased"))
		case errors.Is(err, apperr.ErrActiveSubscriptionExists):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("an active subscription already exists"))
		case errors.Is(err, apperr.ErrDuplicateRequest):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("a pending request already exists"))
		default:
			log.Error("failed to submit payment request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not submit payment request"))
		}
		return
	}

	log.Info("payment request submitted", slog.String("request_id", request.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request": request,
	}))
}
