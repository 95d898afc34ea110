package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/planline/backend/api/handler"
	"github.com/planline/backend/internal/bus"
	"github.com/planline/backend/internal/config"
	"github.com/planline/backend/internal/infrastructure/monitor"
	"github.com/planline/backend/internal/infrastructure/outbox"
	pgInfra "github.com/planline/backend/internal/infrastructure/postgres"
	redisInfra "github.com/planline/backend/internal/infrastructure/redis"
	"github.com/planline/backend/internal/middleware"
	"github.com/planline/backend/internal/push"
	"github.com/planline/backend/internal/router"
	"github.com/planline/backend/internal/services"
	"github.com/planline/backend/internal/services/lifecycle"
	"github.com/planline/backend/pkg/httpcontext"
	"github.com/planline/backend/pkg/logger"
	"github.com/planline/backend/repository/postgres"
	redisRepo "github.com/planline/backend/repository/redis"
	authUC "github.com/planline/backend/usecase/auth"
	eventUC "github.com/planline/backend/usecase/event"
	invitationUC "github.com/planline/backend/usecase/invitation"
	notificationUC "github.com/planline/backend/usecase/notification"
	profileUC "github.com/planline/backend/usecase/profile"
	taskUC "github.com/planline/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "notifications")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	txManager := postgres.NewTxManager(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, 24*time.Hour)

	eventBus := bus.New(zapLogger)
	pushGateway := push.NewRedisGateway(redisClient, cfg.Push.ChannelPrefix, zapLogger)

	drainer := services.NewOutboxDrainer(
		outboxStore,
		mon,
		notificationRepo,
		zapLogger,
		services.DrainerConfig{
			Interval:   cfg.Outbox.DrainInterval,
			BatchSize:  50,
			MaxRetries: cfg.Outbox.MaxRetry,
		},
	)
	drainer.Start()
	manager.Register("outbox_drainer", func(ctx context.Context) error {
		drainer.Stop(ctx)
		return nil
	})

	notifier := services.NewNotifier(notificationRepo, userRepo, pushGateway, drainer, zapLogger)
	notifier.Register(eventBus)
	manager.Register("notifier", func(ctx context.Context) error {
		notifier.Close()
		return nil
	})

	reminder := services.NewReminder(
		eventRepo,
		notificationRepo,
		pushGateway,
		zapLogger,
		services.ReminderConfig{
			Interval: cfg.Scheduler.Interval,
			Lead:     cfg.Scheduler.Lead,
		},
	)
	reminder.Start()
	manager.Register("reminder", func(ctx context.Context) error {
		reminder.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, zapLogger)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	taskEngine := taskUC.NewEngine(taskRepo, eventRepo, txManager, eventBus, zapLogger)
	eventUseCase := eventUC.New(eventRepo, taskRepo, txManager, eventBus, zapLogger)
	notificationUseCase := notificationUC.New(notificationRepo, zapLogger)
	invitationUseCase := invitationUC.New(invitationRepo, userRepo, eventBus, nil, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, time.Hour),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:         apiHandler.NewTaskHandler(taskEngine, ctxAdapter, zapLogger),
		Event:        apiHandler.NewEventHandler(eventUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUseCase, ctxAdapter, zapLogger),
		Invitation:   apiHandler.NewInvitationHandler(invitationUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
