package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/email"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/SAP-F-2025/quiz-service/pkg/logger"
	"github.com/SAP-F-2025/quiz-service/pkg/monitoring"
	"github.com/SAP-F-2025/quiz-service/pkg/security"
	"github.com/SAP-F-2025/quiz-service/pkg/tracing"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger := logger.New(cfg.Log, cfg.Server.Environment)
	defer zapLogger.Sync()
	appLogger := utils.NewZapLogger(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			zapLogger.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("Database initialization failed", zap.Error(err))
	}

	var cacheService cache.CacheService
	var drafts cache.DraftStore
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		zapLogger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
		memory := cache.NewMemoryCache()
		cacheService, drafts = memory, memory
	} else {
		defer redisClient.Close()
		redisCache := cache.NewRedisCache(redisClient, zapLogger)
		cacheService, drafts = redisCache, redisCache
	}

	objectStorage, err := storage.New(&cfg.Storage)
	if err != nil {
		zapLogger.Fatal("Storage initialization failed", zap.Error(err))
	}
	if minio, ok := objectStorage.(*storage.MinioProvider); ok {
		if err := minio.EnsureBucket(ctx); err != nil {
			zapLogger.Fatal("Failed to prepare bucket", zap.Error(err))
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(utils.NewZapSlog(zapLogger))
	if err != nil {
		zapLogger.Fatal("Event publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repository: postgres.NewRepository(db),
		Cache:      cacheService,
		Drafts:     drafts,
		Storage:    objectStorage,
		Email:      email.New(cfg.Email, appLogger),
		Publisher:  publisher,
		Logger:     appLogger,
		Validator:  validator.New(),
		QuizTTL:    cfg.Redis.QuizTTL,
		Attempt: services.AttemptOptions{
			TickInterval: cfg.Attempt.TickInterval,
			DraftTTL:     cfg.Redis.DraftTTL,
		},
		Reminder: services.ReminderOptions{
			BaseURL: cfg.Reminder.BaseURL,
		},
	})

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	monitoring.Init()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.LoggerMiddleware(appLogger),
		utils.ContextLogger(appLogger),
		security.Secure(),
		security.CORS(cfg.CORS.AllowedOrigins),
		security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute),
		monitoring.MetricsMiddleware(),
	)
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.GET("/metrics", monitoring.PrometheusHandler())
	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static(cfg.Storage.PublicURL, cfg.Storage.LocalPath)
	}

	handlers.NewHandlerManager(serviceManager, middleware.NewVerifier(cfg.Auth), appLogger).SetupRoutes(router)

	go runSweeper(ctx, serviceManager.Attempt(), cfg.Attempt.SweepInterval, appLogger)
	if cfg.Reminder.Enabled {
		go runReminders(ctx, serviceManager.Reminder(), cfg.Reminder.Interval, appLogger)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Quiz service listening", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
	serviceManager.Attempt().Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// runSweeper finalizes timed attempts whose countdown was lost, once at
// startup and then every interval.
func runSweeper(ctx context.Context, attempts services.AttemptService, interval time.Duration, logger utils.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := attempts.ExpireStale(ctx); err != nil {
			logger.Error("Expiring stale attempts failed", "error", err)
		} else if n > 0 {
			logger.Info("Expired stale attempts", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runReminders(ctx context.Context, reminders services.ReminderService, interval time.Duration, logger utils.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reminders.Run(ctx, &services.RunRemindersRequest{}); err != nil {
				logger.Error("Scheduled reminder run failed", "error", err)
			}
		}
	}
}
