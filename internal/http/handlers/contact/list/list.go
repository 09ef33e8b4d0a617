// Package list implements the admin HTTP handler listing contact messages.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles the contact message list.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the listing business logic.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Contact, error)
}

// New creates a Handler with the given logger and service.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List contact messages
// @Description Returns contact messages, newest first. Admin only.
// @Tags Contact
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]any "Message list"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /contact [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contact.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	contacts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list contact messages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list contact messages"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	}))
}
