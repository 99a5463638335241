// Package cli holds the start-up steps shared by cmd/timecard and
// cmd/timecard-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"timecard/internal/amqp"
	"timecard/internal/backend"
	"timecard/internal/cache"
	"timecard/internal/config"
	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/metrics"
	"timecard/internal/services"
	"timecard/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{Level: cfg.SlogLevel(), Component: component})
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads .env and the environment and runs validate. A nil
// validate uses Config.Validate.
func LoadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Fatal prints err and exits. Used before a logger exists.
func Fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Ledger is everything built on top of the configured store. Readers have
// no Caches and no Broker.
type Ledger struct {
	Tracker *services.Tracker
	Caches  *cache.Manager
	Broker  *amqp.Client

	cleanups []backend.CleanupFunc
}

// Close releases the broker and the store, in that order.
func (l *Ledger) Close() error {
	var first error
	for i := len(l.cleanups) - 1; i >= 0; i-- {
		if err := l.cleanups[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenLedger creates the store, the report cache and, when AMQP is
// configured, the settlement publisher.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	return openLedger(ctx, cfg, logger, false)
}

// OpenReader opens the ledger for a process that only reads a store written
// by the server. Reports are rebuilt on every call and nothing is published.
func OpenReader(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	return openLedger(ctx, cfg, logger, true)
}

func openLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, readOnly bool) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog())

	res, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	l := &Ledger{cleanups: []backend.CleanupFunc{res.Cleanup}}

	loc, err := cfg.Location()
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	locale := cfg.LedgerLocale()

	opts := services.Options{
		Location: loc,
		Locale:   locale,
		Currency: cfg.Currency,
		Logger:   logger.WithComponent(log.ComponentLedger).Slog(),
	}

	if readOnly {
		opts.ReportCache = cache.Nop[core.MonthReport]{}
	} else {
		reportCache := cache.NewLRU[core.MonthReport](cfg.ReportCacheSize, cfg.ReportCacheTTL,
			cache.WithObserver(metrics.RecordCacheLookup))
		l.Caches = cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
		l.Caches.Register(reportCache)
		opts.ReportCache = reportCache
	}

	if !readOnly && cfg.AMQPURL != "" {
		broker, err := factory.CreateBroker(ctx, bcfg)
		if err != nil {
			// Settlement still commits locally; the worker catches up on start.
			logger.Warn("Settlement events disabled", log.FieldError, err)
		} else {
			l.Broker = broker
			l.cleanups = append(l.cleanups, broker.Close)
			opts.Publisher = broker
		}
	}

	repo := storage.NewRepository(res.Store, locale.Seeds(), logger.WithComponent(log.ComponentStorage).Slog())
	l.Tracker = services.New(repo, opts)
	if err := l.Tracker.Ready(ctx); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("storage not ready: %w", err)
	}
	return l, nil
}
