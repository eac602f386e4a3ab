package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/consumer"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/di"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/database"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/kafka"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	pkgredis "github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/redis"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/retry"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting event query service...")

	ctx := context.Background()

	if cfg.OTel.Enabled {
		if _, err := telemetry.Init(ctx, &telemetry.Config{
			Enabled:        true,
			ServiceName:    cfg.OTel.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			CollectorAddr:  cfg.OTel.CollectorAddr,
			SampleRatio:    cfg.OTel.SampleRatio,
		}); err != nil {
			appLog.Warn(fmt.Sprintf("Telemetry init failed, continuing without tracing: %v", err))
		} else {
			defer telemetry.Shutdown(context.Background())
		}
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db.Pool()); err != nil {
		appLog.Fatal(fmt.Sprintf("Schema setup failed: %v", err))
	}
	appLog.Info("Database connected")

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
	appLog.Info("Redis connected")

	container := di.NewContainer(&di.ContainerConfig{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: appLog,
	})

	// DLQ producer for changes that exhaust their retries
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID + "-dlq",
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Kafka producer connection failed: %v", err))
	}
	defer producer.Close()

	dlq := retry.NewKafkaDLQPublisher(producer, &retry.DLQConfig{
		TopicSuffix: ".dlq",
		Source:      cfg.App.Name,
	})

	consumerCtx, cancelConsumers := context.WithCancel(ctx)
	defer cancelConsumers()

	cdcConsumer, err := consumer.NewCDCConsumer(
		consumerCtx,
		&consumer.CDCConsumerConfig{
			Kafka:       &cfg.Kafka,
			WorkerCount: cfg.Kafka.WorkerCount,
			MaxRetries:  cfg.Source.MaxRetries,
			RetryWindow: cfg.Source.MaxRetryWindow,
		},
		container.Projector,
		container.EventRepo,
		dlq,
		di.AssetResolver(&cfg.Assets),
		appLog,
	)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create CDC consumer: %v", err))
	}
	if err := cdcConsumer.Start(consumerCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start CDC consumer: %v", err))
	}

	seatConsumer, err := consumer.NewSeatStatusConsumer(
		consumerCtx,
		&cfg.Kafka,
		container.Registry,
		container.EventRepo,
		appLog,
	)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create seat status consumer: %v", err))
	}
	if err := seatConsumer.Start(consumerCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start seat status consumer: %v", err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.GET("/:eventId", container.EventHandler.GetEvent)
			events.POST("/:eventId/views", container.EventHandler.RecordView)
			events.GET("/:eventId/trending", container.TrendingHandler.GetEventScore)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("/:sessionId/seats/validate", container.SeatHandler.ValidateSeats)
			sessions.POST("/:sessionId/seats/details", container.SeatHandler.GetSeatDetails)
			sessions.GET("/:sessionId/seat-status/stream", container.StreamHandler.StreamSeatStatus)
		}

		v1.GET("/trending", container.TrendingHandler.GetTrending)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// No WriteTimeout: it covers the whole response, and the seat status
	// stream holds its response open for the life of the connection.
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Event query service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down...")

	cancelConsumers()
	cdcConsumer.Stop()
	seatConsumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
