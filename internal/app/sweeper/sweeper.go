// Package sweeper assembles the expiry sweep worker: storage, broker,
// notifier and the periodic sweep loop, plus a metrics endpoint.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/Manaslohe/TechReportProBE/internal/config"
	"github.com/Manaslohe/TechReportProBE/internal/lib/rabbitmq"
	"github.com/Manaslohe/TechReportProBE/internal/services/notifier"
	sweeperservice "github.com/Manaslohe/TechReportProBE/internal/services/sweeper"
	"github.com/Manaslohe/TechReportProBE/internal/storage/repository"
)

// App is the sweep worker with its owned resources.
type App struct {
	sweeperService *sweeperservice.Service
	db             *repository.Storage
	conn           *amqp.Connection
	ch             *amqp.Channel
	metrics        *http.Server
	logger         *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New wires the sweep worker from config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	events := notifier.New(ch, logger)
	sweeperService := sweeperservice.New(db, events, logger, cfg.Sweep.Interval, cfg.Sweep.WarningDays, nil)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{
		Addr:              ":9091",
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		sweeperService: sweeperService,
		db:             db,
		conn:           conn,
		ch:             ch,
		metrics:        metrics,
		logger:         logger,
	}, nil
}

// Run sweeps until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server stopped", slog.Any("err", err))
		}
	}()

	a.sweeperService.Run(ctx)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to shut down metrics server", slog.Any("err", err))
	}
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
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
