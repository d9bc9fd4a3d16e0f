package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-lifecycle/internal/api/http"
	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memory"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	"github.com/spec-kit/ticket-lifecycle/internal/worker"
)

const devAdminID = "dev-admin"

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	store := buildStore(cfg, pg, tokens, logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	forwarder := events.NewKafkaForwarder(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout(), logger)
	defer forwarder.Close() //nolint:errcheck
	worker.StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, logger, cfg.Notification), forwarder)

	var locker service.Locker
	if redis.Enabled() {
		locker = persistence.NewRedisLocker(redis.Client, cfg.App.Name+":lock:", cfg.Redis.LockTTL(), cfg.Redis.LockWait())
	}

	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Locker:     locker,
		Logger:     logger,
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(lifecycleService),
		WorkSessions:   handlers.NewWorkSessionsHandler(lifecycleService),
		Audit:          handlers.NewAuditHandler(lifecycleService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	return app.Shutdown()
}

// buildStore picks Postgres when a pool exists, otherwise an in-memory
// store seeded with a development admin.
func buildStore(cfg *config.Config, pg *persistence.Postgres, tokens *auth.TokenManager, logger *zap.Logger) repository.Store {
	if pool := pg.PoolHandle(); pool != nil {
		return repository.NewPostgresStore(pool)
	}

	store := memory.New()
	if cfg.App.Env == "development" {
		store.PutUser(domain.User{ID: devAdminID, Username: devAdminID, Role: domain.UserRoleAdmin, Active: true})
		token, _, err := tokens.GenerateToken(devAdminID, domain.UserRoleAdmin)
		if err != nil {
			logger.Warn("unable to mint development token", zap.Error(err))
		} else {
			logger.Info("using in-memory store", zap.String("dev_admin_token", token))
		}
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
	}
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
