package main

import (
	"context"
	"os"

	"timecard/internal/cli"
	apphttp "timecard/internal/http"
	"timecard/internal/log"
)

func main() {
	cfg, err := cli.LoadConfig(nil)
	if err != nil {
		cli.Fatal("Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	ledger, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger.Tracker, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Caches:             ledger.Caches,
	})

	logger.Info("Starting timecard server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"locale", cfg.Locale,
		"currency", cfg.Currency,
		"settlement_events", ledger.Broker != nil)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		stop()
		_ = ledger.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
