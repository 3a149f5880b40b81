package main

import (
	"context"
	"fmt"
	"os"

	"cryptoJournal/config"
	"cryptoJournal/internal/adapters/binanceclient"
	"cryptoJournal/internal/adapters/gormstore"
	"cryptoJournal/internal/adapters/logger"
	"cryptoJournal/internal/adapters/news"
	"cryptoJournal/internal/adapters/session"
	"cryptoJournal/internal/adapters/sqlite"
	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/app"
	"cryptoJournal/internal/backup"
	"cryptoJournal/internal/ports"
)

// runtime bundles everything a command may need. Fields are nil when not built.
type runtime struct {
	cfg     *config.Config
	logger  *logger.LogrusLogger
	store   ports.Store
	journal *app.JournalService
	auth    *app.AuthService
	catalog *app.CatalogService
	market  *app.MarketService
	backups *backup.Scheduler
	closers []func() error
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Error(context.Background(), err, "Error during shutdown")
		}
	}
}

// buildRuntime loads configuration and wires storage, sessions and services.
// Market data is only wired when withMarket is set (serve).
func buildRuntime(ctx context.Context, withMarket bool) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr).With(map[string]interface{}{"app": cfg.AppName})
	rt := &runtime{cfg: cfg, logger: appLogger}

	store, err := openStore(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)

	sessions, err := openSessions(ctx, cfg, appLogger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if closer, ok := sessions.(interface{ Close() error }); ok {
		rt.closers = append(rt.closers, closer.Close)
	}

	evaluator, err := analytics.NewEvaluator(cfg.RiskPercent)
	if err != nil {
		rt.Close()
		return nil, err
	}
	leaderboardSize := cfg.LeaderboardSize
	if leaderboardSize == 0 {
		leaderboardSize = 10
	}
	if rt.journal, err = app.NewJournalService(store, store, evaluator, nil, appLogger, leaderboardSize); err != nil {
		rt.Close()
		return nil, err
	}
	if rt.auth, err = app.NewAuthService(store, store, sessions, nil, appLogger, app.AuthConfig{
		SessionTTL:              cfg.SessionTTL,
		AccountValidity:         cfg.AccountValidity,
		RequireRegistrationCode: cfg.RequireRegistrationCode,
	}); err != nil {
		rt.Close()
		return nil, err
	}
	if rt.catalog, err = app.NewCatalogService(store, appLogger); err != nil {
		rt.Close()
		return nil, err
	}

	if snapshotter, ok := store.(ports.Snapshotter); ok && cfg.BackupDir != "" {
		hour, minute := cfg.BackupClock()
		if rt.backups, err = backup.NewScheduler(snapshotter, backup.Config{
			Dir: cfg.BackupDir, Hour: hour, Minute: minute, Retain: cfg.BackupRetain,
		}, nil, appLogger); err != nil {
			rt.Close()
			return nil, err
		}
	}

	if withMarket {
		if rt.market, err = openMarket(cfg, appLogger); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func openStore(cfg *config.Config, appLogger *logger.LogrusLogger) (ports.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		store, err := gormstore.NewStore(gormstore.Config{
			DSN:          cfg.DatabaseURL,
			GormLogLevel: cfg.GormLogLevel,
			LogWriter:    appLogger.Logrus(),
			Logger:       appLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return store, nil
	default:
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database repository: %w", err)
		}
		return repo, nil
	}
}

func openSessions(ctx context.Context, cfg *config.Config, appLogger ports.Logger) (ports.SessionStore, error) {
	if cfg.RedisAddr == "" {
		appLogger.Info(ctx, "Using in-memory session store")
		return session.NewMemoryStore(nil), nil
	}
	client, err := session.NewRedisClient(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	appLogger.Info(ctx, "Using redis session store", map[string]interface{}{"addr": cfg.RedisAddr})
	return session.NewRedisStore(client, nil), nil
}

func openMarket(cfg *config.Config, appLogger ports.Logger) (*app.MarketService, error) {
	market, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Binance client: %w", err)
	}

	var newsClient ports.NewsClient
	if cfg.NewsAPIKey != "" {
		nc, err := news.New(news.Config{
			URL:      cfg.NewsAPIURL,
			APIKey:   cfg.NewsAPIKey,
			PageSize: cfg.NewsPageSize,
			Logger:   appLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize news client: %w", err)
		}
		newsClient = nc
	}

	return app.NewMarketService(market, newsClient, nil, appLogger, app.MarketConfig{
		KlineInterval: cfg.KlineInterval,
		KlineLimit:    cfg.KlineLimit,
		NewsPageSize:  cfg.NewsPageSize,
	})
}
