package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/api/gql"
	httptransport "github.com/spec-kit/eats-backend/internal/api/http"
	"github.com/spec-kit/eats-backend/internal/api/http/handlers"
	"github.com/spec-kit/eats-backend/internal/auth"
	"github.com/spec-kit/eats-backend/internal/config"
	"github.com/spec-kit/eats-backend/internal/events"
	"github.com/spec-kit/eats-backend/internal/notify"
	"github.com/spec-kit/eats-backend/internal/observability"
	"github.com/spec-kit/eats-backend/internal/persistence"
	"github.com/spec-kit/eats-backend/internal/repository"
	"github.com/spec-kit/eats-backend/internal/service"
	"github.com/spec-kit/eats-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var store repository.Store
	if pg.Configured() {
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = repository.NewMemoryStore()
	}

	var (
		redis      *persistence.Redis
		dispatcher events.Dispatcher
	)
	switch cfg.Notification.QueueDriver {
	case config.QueueDriverRedis:
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis queue", zap.Error(err))
		}
		defer redis.Close()
		dispatcher = events.NewRedisDispatcher(redis.Client, cfg.Notification.QueueKey, logger)
	default:
		dispatcher = events.NewInMemoryDispatcher(cfg.Notification.QueueSize, logger)
	}

	notificationService := service.NewNotificationService(dispatcher, notify.NewSender(cfg.Mail, logger), logger)
	workerDone := worker.StartNotificationWorker(ctx, notificationService, dispatcher, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accountService := service.NewAccountService(service.AccountDependencies{
		Store:      store,
		Tokens:     tokens,
		Publisher:  dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	schema, err := gql.NewSchema(gql.NewResolver(accountService), auth.NewGuard(gql.OperationRoles))
	if err != nil {
		logger.Fatal("failed to build graphql schema", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		GraphQL:        gql.NewHandler(schema, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-workerDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
