// Package grant implements the admin HTTP handler that files a payment
// request on a user's behalf when payment was verified out of band.
package grant

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
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles admin grants.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the grant business logic.
type Service interface {
	GrantByAdmin(ctx context.Context, grant models.DummyPaymentGrant) (*models.PaymentRequest, error)
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
// @Summary File a payment request for a user
// @Description Creates a pending request on the user's behalf; it still goes through review. Admin only.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.DummyPaymentGrant true "Target user and payment details"
// @Success 200 {object} map[string]any "Request created"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON or payload/type mismatch"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "User or report not found"
// @Failure 409 {object} response.ErrorResponse "Duplicate, already purchased or subscription active"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /payments/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.grant"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPaymentGrant
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

	request, err := h.service.GrantByAdmin(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment payload does not match its type"))
		case errors.Is(err, apperr.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user or report not found"))
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
			log.Error("failed to grant payment request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create payment request"))
		}
		return
	}

	log.Info("payment request filed by admin", slog.String("payment_request_id", request.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request": request,
	}))
}
