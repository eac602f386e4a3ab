package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/di"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/trending"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/database"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	pkgredis "github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/redis"
)

// The trending worker runs the scheduled score recompute batch. It
// shares the read model with the API service but runs as its own
// process, so a slow batch never competes with request serving.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name + "-trending-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting trending worker...")

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db.Pool()); err != nil {
		appLog.Fatal(fmt.Sprintf("Schema setup failed: %v", err))
	}

	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()

	container := di.NewContainer(&di.ContainerConfig{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: appLog,
	})

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := trending.NewScheduler(
		container.TrendingService,
		cfg.Trending.RecomputeInterval,
		appLog,
	)
	scheduler.Start(workerCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down trending worker...")

	cancel()
	scheduler.Stop()
	appLog.Info("Trending worker exited gracefully")
}
