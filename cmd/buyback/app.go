package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"asset-buyback-api/internal/config"
	"asset-buyback-api/internal/database"
	"asset-buyback-api/internal/events"
	"asset-buyback-api/internal/notification"
	"asset-buyback-api/internal/repository"
	"asset-buyback-api/internal/repository/memory"
	"asset-buyback-api/internal/service"
	svcnotification "asset-buyback-api/internal/service/notification"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *sql.DB
	repo      repository.AssetRepository
	publisher events.Publisher
}

// initLogger builds a production logger, or a development one for LOG_LEVEL=debug.
func initLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = atom
	return zcfg.Build()
}

// appOptions selects the optional parts newApp wires.
type appOptions struct {
	events      bool
	autoMigrate bool
}

// newApp loads configuration and opens the record store.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, publisher: events.NopPublisher{}}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; records are lost on exit")
		a.repo = memory.New()
	default:
		db, err := database.InitDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		a.repo = repository.NewAssetRepository(db)

		if opts.autoMigrate && cfg.AutoMigrate {
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				a.close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("database schema ready", zap.Int("applied", applied))
		}
	}

	if opts.events && cfg.EventsEnabled() {
		events.EnsureTopic(cfg.Events.Brokers, cfg.Events.Topic, logger)
		a.publisher = events.NewProducer(events.ProducerConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			BatchTimeout: cfg.Events.BatchTimeout,
			BufferSize:   cfg.Events.BufferSize,
		}, logger)
		logger.Info("publishing asset events",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
	}

	return a, nil
}

// service builds the asset service. A nil loc uses EXPORT_TIMEZONE.
func (a *app) service(loc *time.Location) (*service.AssetService, error) {
	if loc == nil {
		var err error
		if loc, err = a.cfg.ExportLocation(); err != nil {
			return nil, err
		}
	}

	var notifier service.NotificationService
	if a.cfg.NotificationsEnabled() {
		client := notification.NewNotifierWithConfig(notification.NotificationConfig{
			URL:            a.cfg.NotificationService.URL,
			Timeout:        a.cfg.NotificationService.Timeout,
			RetryAttempts:  a.cfg.NotificationService.RetryAttempts,
			RetryDelay:     a.cfg.NotificationService.RetryDelay,
			MaxPayloadSize: a.cfg.NotificationService.MaxPayloadSize,
		}, a.logger)
		notifier = svcnotification.NewServiceAdapter(client)
	}

	return service.NewAssetService(a.repo, service.Options{
		Publisher:      a.publisher,
		Notifier:       notifier,
		Logger:         a.logger,
		ExportLocation: loc,
	}), nil
}

func (a *app) close() {
	a.publisher.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
