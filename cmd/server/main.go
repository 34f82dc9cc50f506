package main

import (
	"context"
	"log"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskhub/backend/api/handler"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/infrastructure/buffer"
	"github.com/taskhub/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskhub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskhub/backend/internal/infrastructure/redis"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/router"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/internal/services/lifecycle"
	"github.com/taskhub/backend/pkg/httpcontext"
	"github.com/taskhub/backend/pkg/logger"
	"github.com/taskhub/backend/repository"
	"github.com/taskhub/backend/repository/postgres"
	redisRepo "github.com/taskhub/backend/repository/redis"
	syncUC "github.com/taskhub/backend/usecase/sync"
	taskUC "github.com/taskhub/backend/usecase/task"
	userUC "github.com/taskhub/backend/usecase/user"
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

	var userRepo repository.UserRepository = postgres.NewUserRepository(pool)
	var taskRepo repository.TaskRepository = postgres.NewTaskRepository(pool)

	// Redis is optional: the service degrades to uncached repositories.
	var redisClient *goRedis.Client
	if cfg.Redis.Enabled {
		client, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			redisClient = client
			manager.Register("redis", func(ctx context.Context) error {
				return redisClient.Close()
			})
			userRepo = redisRepo.NewUserCache(userRepo, redisClient, cfg.Redis.CacheTTL)
			taskRepo = redisRepo.NewTaskCache(taskRepo, redisClient, cfg.Redis.CacheTTL)
		}
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "sync")
	if err != nil {
		zapLogger.Fatal("failed to open sync buffer", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	syncer := syncUC.New(userRepo, taskRepo, zapLogger)

	syncProcessor := services.NewSyncProcessor(
		bufferStore,
		mon,
		syncer,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	syncProcessor.Start()
	manager.Register("sync_processor", func(ctx context.Context) error {
		syncProcessor.Stop(ctx)
		return nil
	})

	syncer.SetBuffer(services.NewSyncBridge(syncProcessor))

	userUseCase := userUC.New(userRepo, syncer, zapLogger)
	taskUseCase := taskUC.New(taskRepo, syncer, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)
	requestLogging := middleware.RequestLogging(zapLogger)

	server := &fasthttp.Server{
		Handler:      requestLogging(r.Handler),
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
