package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-monitor/internal/api/http"
	"github.com/spec-kit/sla-monitor/internal/api/http/handlers"
	"github.com/spec-kit/sla-monitor/internal/auth"
	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/events"
	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/persistence"
	"github.com/spec-kit/sla-monitor/internal/repository"
	"github.com/spec-kit/sla-monitor/internal/scheduler"
	"github.com/spec-kit/sla-monitor/internal/service"
	"github.com/spec-kit/sla-monitor/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	slaConfigRepo := repository.NewSlaConfigRepository(pool)
	workItemRepo := repository.NewWorkItemRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notificationQueue := persistence.NewRedisNotificationQueue(redis, cfg.Notification.QueueKey)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Queue:      notificationQueue,
		ItemRepo:   workItemRepo,
		UserRepo:   userRepo,
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Notification,
	})
	worker.StartNotificationWorker(notificationService)

	resolver := service.NewResolverService(userRepo, logger)
	escalator := service.NewEscalationService(service.EscalationDependencies{
		ViolationRepo: violationRepo,
		WorkItemRepo:  workItemRepo,
		UserRepo:      userRepo,
		Resolver:      resolver,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	detector := service.NewDetectorService(service.DetectorDependencies{
		SlaConfigRepo: slaConfigRepo,
		WorkItemRepo:  workItemRepo,
		ViolationRepo: violationRepo,
		Escalator:     escalator,
		Dispatcher:    dispatcher,
		Logger:        logger,
		AutoEscalate:  cfg.Sla.AutoEscalate,
	})
	metricsService := service.NewMetricsService(workItemRepo, violationRepo, logger)

	dispatcher.Subscribe(events.EventSweepCompleted, func(_ context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.SweepCompletedPayload); ok {
			metrics.RecordSweep(payload.ViolationsCreated, payload.Escalations)
		}
		return nil
	})

	sweeper := scheduler.New(cfg.Sla.SweepInterval(), func(ctx context.Context) error {
		_, err := detector.RunSweep(ctx)
		return err
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Escalations:    handlers.NewEscalationsHandler(escalator, metricsService),
		Violations:     handlers.NewViolationsHandler(metricsService),
		Metrics:        handlers.NewMetricsHandler(metricsService),
		Sweeps:         handlers.NewSweepsHandler(detector),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
