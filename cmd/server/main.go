// Package main runs the CIEC.Now admin HTTP server with WebSocket refresh notices and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ciecnow/backend/config"
	"github.com/ciecnow/backend/internal/auth"
	"github.com/ciecnow/backend/internal/automation"
	"github.com/ciecnow/backend/internal/calendar"
	"github.com/ciecnow/backend/internal/events"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/realtime"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/database"
	"github.com/ciecnow/backend/pkg/queue"
	"github.com/ciecnow/backend/pkg/redis"
	"github.com/ciecnow/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var st store.Store
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		st = store.NewMemory()
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				logger.Fatal("migrate", zap.Error(err))
			}
		}
		st = store.NewPostgres(pool)
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var flyers events.FlyerStore
	if cfg.AWS.FlyersBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			FlyersBucket:         cfg.AWS.FlyersBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			flyers = s3Client
		}
	}

	var dispatcher events.Dispatcher
	if cfg.Webhook.URL != "" {
		dispatcher = automation.New(automation.Config{
			URL:     cfg.Webhook.URL,
			Secret:  cfg.Webhook.Secret,
			Timeout: cfg.Webhook.Timeout,
		}, logger)
	} else {
		logger.Warn("automation webhook not configured; invitation dispatch disabled")
	}

	// Snapshot, change fan-out and orchestrator
	fetcher := snapshot.New(st, logger)
	hub := realtime.NewHub(logger)
	fetcher.OnRefresh(hub.SnapshotRefreshed)
	changes := realtime.NewRedisPubSub(rdb.Client, logger)
	orch := orchestrator.New(st, fetcher, changes, logger)

	if err := fetcher.RefreshAll(ctx); err != nil {
		logger.Warn("initial snapshot incomplete", zap.Error(err))
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	stopChanges, err := changes.SubscribeChanges(bgCtx, realtime.RefreshOnChange(fetcher, logger))
	if err != nil {
		logger.Warn("change subscription disabled", zap.Error(err))
	} else {
		defer stopChanges()
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if cfg.Snapshot.RefreshSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.Snapshot.RefreshSchedule, func() {
			if err := fetcher.RefreshAll(bgCtx); err != nil {
				logger.Warn("scheduled refresh incomplete", zap.Error(err))
			}
		}); err != nil {
			logger.Fatal("snapshot schedule", zap.String("schedule", cfg.Snapshot.RefreshSchedule), zap.Error(err))
		}
		scheduler.Start()
		logger.Info("snapshot refresh scheduled", zap.String("schedule", cfg.Snapshot.RefreshSchedule))
	}

	router := newRouter(&app{
		store:        st,
		fetcher:      fetcher,
		orchestrator: orch,
		jwt:          auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours),
		resets:       auth.NewRedisResetTokens(rdb.Client, cfg.JWT.ResetTTL),
		notifier:     queue.NewQueue(rdb.Client, logger),
		flyers:       flyers,
		dispatcher:   dispatcher,
		hub:          hub,
		calendar: calendar.Config{
			Name:     cfg.Calendar.Name,
			PastDays: cfg.Calendar.PastDays,
			Location: cfg.Calendar.Location(),
		},
		pageCapacity: cfg.Report.PageCapacity,
		corsOrigins:  cfg.Server.CORSAllowedOrigins,
		logger:       logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-scheduler.Stop().Done()
	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
