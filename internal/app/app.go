package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"storefront_pay/internal/config"
	"storefront_pay/internal/services"
	"storefront_pay/internal/tasks"
)

const sweepInterval = time.Minute

// App holds the wired services shared by the server, the worker and the CLIs
type App struct {
	Config      config.Config
	Logger      *slog.Logger
	DB          *gorm.DB
	Ledger      *services.Ledger
	Sessions    services.SessionCache
	Gateway     *services.PaytmGateway
	Payments    *services.PaymentService
	Settlements *services.SettlementService

	closers []func() error
}

// NewLogger returns a JSON logger in production and a text logger elsewhere
func NewLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// New opens the ledger database, picks the session cache and builds the services.
// The in-memory session sweeper runs until ctx is done.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg)
	}
	a := &App{Config: cfg, Logger: logger}

	db, err := services.InitDB(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if err := services.AutoMigrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	a.Sessions = a.sessionCache(ctx)
	a.Ledger = services.NewLedger(db)

	signer := services.NewSigner(cfg.Gateway.MerchantKey)
	a.Gateway = services.NewPaytmGateway(cfg.Gateway, signer)
	a.Payments = services.NewPaymentService(cfg, signer, a.Ledger, a.Sessions, a.Gateway, BuildNotifier(cfg), logger)
	a.Settlements = services.NewSettlementService(a.Ledger, a.Gateway, logger)
	return a, nil
}

func (a *App) sessionCache(ctx context.Context) services.SessionCache {
	if a.Config.RedisURL != "" {
		cache, err := services.NewRedisCache(a.Config.RedisURL)
		if err == nil {
			a.closers = append(a.closers, cache.Close)
			a.Logger.Info("using redis session cache")
			return services.NewRedisSessionCache(cache)
		}
		a.Logger.Warn("redis unavailable, falling back to in-memory sessions", "error", err)
	}
	mem := services.NewMemorySessionCache()
	go mem.RunSweeper(ctx, sweepInterval)
	return mem
}

// BuildNotifier fans receipts out to every configured channel
func BuildNotifier(cfg config.Config) services.Notifier {
	var notifiers services.MultiNotifier
	if email := services.NewEmailService(cfg.SMTP); email.Configured() {
		notifiers = append(notifiers, email)
	}
	if cfg.WAHA.BaseURL != "" {
		notifiers = append(notifiers, services.NewWahaService(cfg.WAHA))
	}
	if len(notifiers) == 0 {
		return services.NopNotifier{}
	}
	return notifiers
}

// TaskRegistry registers the background tasks over this app's services
func (a *App) TaskRegistry() *tasks.Registry {
	r := tasks.NewRegistry()
	tasks.DefineTasks(r,
		tasks.NewReconcilePendingTask(a.Ledger, a.Payments, a.Config.ReconcileMinAge, a.Logger),
		tasks.NewLogSummaryTask(a.Settlements, a.Logger),
	)
	return r
}

// Close releases the database and cache connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
