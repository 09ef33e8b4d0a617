// Package reportpro assembles the API server: storage, cache, message
// broker, services, router and graceful shutdown.
package reportpro

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/Manaslohe/TechReportProBE/internal/cache"
	"github.com/Manaslohe/TechReportProBE/internal/config"
	"github.com/Manaslohe/TechReportProBE/internal/lib/jwt"
	"github.com/Manaslohe/TechReportProBE/internal/lib/rabbitmq"
	"github.com/Manaslohe/TechReportProBE/internal/migrations"
	accessservice "github.com/Manaslohe/TechReportProBE/internal/services/access"
	authservice "github.com/Manaslohe/TechReportProBE/internal/services/auth"
	contactservice "github.com/Manaslohe/TechReportProBE/internal/services/contact"
	"github.com/Manaslohe/TechReportProBE/internal/services/notifier"
	paymentservice "github.com/Manaslohe/TechReportProBE/internal/services/payment"
	reportservice "github.com/Manaslohe/TechReportProBE/internal/services/report"
	"github.com/Manaslohe/TechReportProBE/internal/storage/repository"
)

// App is the API server with its owned resources.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New wires the whole API application from config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeBroker(nil, conn, logger)
		return nil, err
	}

	maker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	events := notifier.New(ch, logger)

	accessService := accessservice.New(db, logger, nil)
	authService := authservice.New(db, cacheRedis, maker, events, logger)
	paymentService := paymentservice.New(db, events, logger, nil)
	reportService := reportservice.New(db, accessService, cacheRedis, events, logger)

	supportEmail := cfg.SupportEmail
	if supportEmail == "" {
		supportEmail = cfg.SMTPUser
	}
	contactService := contactservice.New(db, events, supportEmail, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, maker, &Services{
		Auth:    authService,
		Access:  accessService,
		Payment: paymentService,
		Report:  reportService,
		Contact: contactService,
		Stats:   db,
		Health:  db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		closeBroker(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}

func closeBroker(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}
