package di

import (
	"context"
	"strings"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/broadcast"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/client"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/dto"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/handler"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/projector"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/seating"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/trending"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/database"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/redis"
)

// Container wires repositories, services, and handlers together
type Container struct {
	DB    *database.PostgresDB
	Redis *redis.Client

	EventRepo    repository.EventRepository
	TrendingRepo repository.TrendingRepository
	PageViewRepo repository.PageViewRepository
	RankingCache repository.RankingCache

	Fetcher  client.ProjectionFetcher
	Registry *broadcast.Registry

	Projector       *projector.Projector
	SeatingService  *seating.Service
	TrendingService *trending.Service

	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	SeatHandler     *handler.SeatHandler
	StreamHandler   *handler.StreamHandler
	TrendingHandler *handler.TrendingHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client
	Logger *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}

	c.EventRepo = repository.NewPostgresEventRepository(cfg.DB.Pool())
	c.TrendingRepo = repository.NewPostgresTrendingRepository(cfg.DB.Pool())
	pageViews := repository.NewRedisPageViewRepository(cfg.Redis, 7)
	c.PageViewRepo = pageViews
	c.RankingCache = repository.NewRedisRankingCache(cfg.Redis, cfg.Config.Trending.RankingCacheTTL)

	c.Fetcher = client.NewHTTPProjectionClient(&cfg.Config.Source, cfg.Logger)

	c.Registry = broadcast.NewRegistry(cfg.Config.Broadcast.SubscriberBuffer)
	c.Registry.OnDrop(func(sessionID string) {
		metrics.RecordBroadcastDrop(context.Background(), sessionID)
	})

	resolve := AssetResolver(&cfg.Config.Assets)

	c.Projector = projector.New(
		c.Fetcher,
		c.EventRepo,
		c.TrendingRepo,
		c.PageViewRepo,
		resolve,
		cfg.Logger,
	)
	c.SeatingService = seating.NewService(c.EventRepo)
	c.TrendingService = trending.NewService(
		c.EventRepo,
		c.TrendingRepo,
		pageViews,
		c.PageViewRepo,
		c.RankingCache,
		cfg.Logger,
	)

	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.EventRepo, c.TrendingService)
	c.SeatHandler = handler.NewSeatHandler(c.SeatingService)
	c.StreamHandler = handler.NewStreamHandler(c.Registry, c.EventRepo)
	c.TrendingHandler = handler.NewTrendingHandler(c.TrendingService, cfg.Config.Trending.TopLimit)

	return c
}

// AssetResolver builds the cover-photo key resolver. Keys that are
// already absolute URLs pass through untouched.
func AssetResolver(cfg *config.AssetsConfig) dto.AssetResolver {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	return func(key string) string {
		if key == "" {
			return ""
		}
		if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
			return key
		}
		return base + "/" + strings.TrimLeft(key, "/")
	}
}
