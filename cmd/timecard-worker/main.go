package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"timecard/internal/backend"
	"timecard/internal/cli"
	"timecard/internal/config"
	"timecard/internal/log"
	"timecard/internal/worker"
)

const (
	catchUpMonths   = 12
	catchUpInterval = 6 * time.Hour
)

func main() {
	cfg, err := cli.LoadConfig((*config.Config).ValidateWorker)
	if err != nil {
		cli.Fatal("Invalid worker configuration", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting timecard-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog())

	writer, err := backend.NewFactory(logger.WithComponent(log.ComponentSheets).Slog()).CreateMonthWriter(ctx, bcfg)
	if err != nil {
		return err
	}

	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		return err
	}
	defer broker.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	wcfg := worker.Config{Location: loc, Locale: cfg.LedgerLocale(), Currency: cfg.Currency}

	// A sqlite ledger is shared with the server, so the worker can read the
	// current state and catch up on months settled while it was down. The
	// memory backend lives in the server process only.
	var (
		w         *worker.SettlementWorker
		hasLedger bool
	)
	if bcfg.Type == backend.SQLiteBackend {
		ledger, err := cli.OpenReader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()
		w = worker.NewSettlementWorker(ledger.Tracker.Reports, writer, wcfg)
		hasLedger = true
	} else {
		logger.Info("No shared ledger, exporting from settlement messages only", "backend", cfg.DataBackend)
		w = worker.NewSettlementWorker(nil, writer, wcfg)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broker.ConsumeMonthSettled(gctx, w.HandleMonthSettled)
	})
	if hasLedger {
		g.Go(func() error {
			catchUp(gctx, w, logger)
			ticker := time.NewTicker(catchUpInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					catchUp(gctx, w, logger)
				}
			}
		})
	}
	return g.Wait()
}

// catchUp rewrites the sheets of recently settled months. Failures are logged
// and retried on the next tick.
func catchUp(ctx context.Context, w *worker.SettlementWorker, logger *log.Logger) {
	n, err := w.ExportPaidMonths(ctx, time.Now(), catchUpMonths)
	if err != nil {
		log.NewStructuredLogger(logger).LogError(ctx, "Catch-up export failed", err,
			log.ComponentWorker, log.OpExport, log.LogFields{"exported": n})
		return
	}
	logger.Info("Catch-up export finished", log.FieldOperation, log.OpExport, "exported", n)
}
