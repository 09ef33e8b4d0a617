// Package upload implements the admin HTTP handler for publishing a report.
//
// Handler accepts a multipart form with the metadata fields and the PDF file,
// validates both and stores the report through the service.
package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/Manaslohe/TechReportProBE/internal/http/response"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Handler handles report uploads.
type Handler struct {
	log           *slog.Logger
	service       Service
	validate      *validator.Validate
	maxUploadSize int64
}

// Service describes the upload business logic.
type Service interface {
	Upload(ctx context.Context, req models.DummyReportUpload, content []byte) (*models.Report, error)
}

// New creates a Handler with the given logger, service and size cap.
func New(log *slog.Logger, service Service, maxUploadSize int64) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

// ServeHTTP godoc
// @Summary Upload a report
// @Description Publishes a new report PDF with its metadata. Admin only.
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Report title"
// @Param sector formData string true "Sector"
// @Param report_type formData string true "free, premium or bluechip"
// @Param price formData number false "Individual purchase price"
// @Param file formData file true "PDF file"
// @Success 200 {object} map[string]any "Report published"
// @Failure 400 {object} response.ErrorResponse "Bad form or not a PDF"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Security BearerAuth
// @Router /reports [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.upload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form or file too large"))
		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	req := models.DummyReportUpload{
		Title:      r.FormValue("title"),
		Sector:     r.FormValue("sector"),
		ReportType: r.FormValue("report_type"),
		Price:      price,
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("missing report file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing report file"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		log.Error("unsupported content type", slog.String("content_type", contentType))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("only PDF uploads are supported"))
		return
	}
	req.ContentType = "application/pdf"

	content, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read report file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read report file"))
		return
	}

	report, err := h.service.Upload(r.Context(), req, content)
	if err != nil {
		log.Error("failed to upload report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not upload report"))
		return
	}

	log.Info("report uploaded", slog.String("report_id", report.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"report": report,
	}))
}
