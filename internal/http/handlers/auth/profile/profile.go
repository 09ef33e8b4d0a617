// Package profile implements the HTTP handler that returns the authenticated
// user's account together with the current subscription state.
package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Manaslohe/TechReportProBE/internal/http/middlewarectx"
	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/month"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles profile requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the profile business logic.
type Service interface {
	GetProfile(ctx context.Context, userUID string) (*models.User, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get the current user's profile
// @Description Returns the account with its subscription state and quota counters.
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]any "Profile"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.service.GetProfile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load profile"))
		return
	}

	data := map[string]any{
		"uid":      user.UID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	}
	if sub := user.CurrentSubscription; sub != nil {
		data["subscription"] = sub
		if sub.IsActive && sub.ExpiryDate.After(time.Now()) {
			data["days_left"] = month.DaysLeft(time.Now(), sub.ExpiryDate)
		}
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
