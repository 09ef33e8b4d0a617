package reportpro

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/Manaslohe/TechReportProBE/internal/config"
	accesscheck "github.com/Manaslohe/TechReportProBE/internal/http/handlers/access/check"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/admin/stats"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/auth/login"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/auth/profile"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/auth/register"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/auth/resetconfirm"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/auth/resetrequest"
	contactcreate "github.com/Manaslohe/TechReportProBE/internal/http/handlers/contact/create"
	contactlist "github.com/Manaslohe/TechReportProBE/internal/http/handlers/contact/list"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/health"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/payment/grant"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/payment/listall"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/payment/listmy"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/payment/review"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/payment/submit"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/report/download"
	reportlist "github.com/Manaslohe/TechReportProBE/internal/http/handlers/report/list"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/report/read"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/report/remove"
	"github.com/Manaslohe/TechReportProBE/internal/http/handlers/report/upload"
	"github.com/Manaslohe/TechReportProBE/internal/http/middlewarectx"
	"github.com/Manaslohe/TechReportProBE/internal/lib/jwt"
	accessservice "github.com/Manaslohe/TechReportProBE/internal/services/access"
	authservice "github.com/Manaslohe/TechReportProBE/internal/services/auth"
	contactservice "github.com/Manaslohe/TechReportProBE/internal/services/contact"
	paymentservice "github.com/Manaslohe/TechReportProBE/internal/services/payment"
	reportservice "github.com/Manaslohe/TechReportProBE/internal/services/report"
	"github.com/Manaslohe/TechReportProBE/internal/storage/repository"
)

// Services bundles the wired business services for route registration.
type Services struct {
	Auth    *authservice.Service
	Access  *accessservice.Service
	Payment *paymentservice.Service
	Report  *reportservice.Service
	Contact *contactservice.Service
	Stats   *repository.Storage
	Health  *repository.Storage
}

// RegisterRoutes registers every route of the API server.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, maker jwt.Maker, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authLimiter := rate.NewLimiter(5, 15)

	r.Route("/api/v1", func(r chi.Router) {
		// open endpoints, rate limited against brute force
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(authLimiter, logger))
			r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/password-reset/request", resetrequest.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/password-reset/confirm", resetconfirm.New(logger, s.Auth).ServeHTTP)
		})

		// public catalog with optional identity; free reports download
		// without a token
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(maker, logger))
			r.Get("/reports", reportlist.New(logger, s.Report).ServeHTTP)
			r.Get("/reports/{id}", read.New(logger, s.Report).ServeHTTP)
			r.Get("/reports/{id}/access", accesscheck.New(logger, s.Report).ServeHTTP)
			r.Get("/reports/{id}/download", download.New(logger, s.Report).ServeHTTP)
			r.Post("/contact", contactcreate.New(logger, s.Contact).ServeHTTP)
		})

		// authenticated user endpoints
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Get("/users/me", profile.New(logger, s.Auth).ServeHTTP)
			r.Post("/payments", submit.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments/my", listmy.New(logger, s.Payment).ServeHTTP)
		})

		// admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RequireRole(middlewarectx.RoleAdmin, logger))
			r.Post("/reports", upload.New(logger, s.Report, cfg.MaxUploadSize).ServeHTTP)
			r.Delete("/reports/{id}", remove.New(logger, s.Report).ServeHTTP)
			r.Get("/payments", listall.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/{id}/review", review.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/grant", grant.New(logger, s.Payment).ServeHTTP)
			r.Get("/contact", contactlist.New(logger, s.Contact).ServeHTTP)
			r.Get("/admin/stats", stats.New(logger, s.Stats).ServeHTTP)
		})

		r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
