package server

import (
	"context"
	"fmt"

	"pintu/internal/config"
	"pintu/internal/database"
	"pintu/internal/metrics"
	"pintu/internal/repositories"
	"pintu/internal/services"
	"pintu/internal/session"
	"pintu/pkg/logger"
	"pintu/pkg/rabbitmq"
	"pintu/pkg/redisstore"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Runtime owns the application and every resource opened for it.
type Runtime struct {
	App      *fiber.App
	DB       *gorm.DB
	Accounts *services.AccountService

	closers []func() error
}

// Bootstrap opens the store, applies migrations and wires the application for cfg.
func Bootstrap(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	rt := &Runtime{}

	db, err := database.Open(cfg.DatabaseURL, cfg.RunMode == config.ModeDev)
	if err != nil {
		return nil, err
	}
	rt.DB = db
	rt.closers = append(rt.closers, func() error { return database.Close(db) })

	if err := database.Migrate(ctx, db); err != nil {
		_ = rt.Shutdown()
		return nil, err
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			_ = rt.Shutdown()
			return nil, err
		}
		log.Info("Publishing account events", "exchange", rabbitmq.DefaultExchange)
		events = mqClient
		rt.closers = append(rt.closers, mqClient.Close)
	}

	var storage fiber.Storage
	if cfg.SessionStore == config.SessionStoreRedis {
		redisStorage, err := redisstore.New(redisstore.Config{URL: cfg.RedisURL})
		if err != nil {
			_ = rt.Shutdown()
			return nil, err
		}
		storage = redisStorage
		rt.closers = append(rt.closers, redisStorage.Close)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	rt.Accounts = services.NewAccountService(userRepo, hasher, events, log)

	sessions := session.NewManager(session.Config{
		Expiration:   cfg.SessionTTL,
		Storage:      storage,
		CookieSecure: cfg.CookieSecure,
	})

	app, err := NewApp(Dependencies{
		Config:   cfg,
		Logger:   log,
		Accounts: rt.Accounts,
		Sessions: sessions,
		Metrics:  metrics.New("pintu"),
	})
	if err != nil {
		_ = rt.Shutdown()
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	rt.App = app
	return rt, nil
}

// Shutdown stops the app and releases resources in reverse order of acquisition.
func (rt *Runtime) Shutdown() error {
	var errs []error
	if rt.App != nil {
		if err := rt.App.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down app: %w", err))
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
