// The reportpro binary runs the marketplace API server.
//
// @title TechReport Pro API
// @version 1.0
// @description Market-research report marketplace: catalog, access control, manual payment review and subscriptions.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Manaslohe/TechReportProBE/internal/app/reportpro"
	"github.com/Manaslohe/TechReportProBE/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting reportpro service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := reportpro.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize reportpro app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("reportpro app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("reportpro app stopped gracefully")
}
