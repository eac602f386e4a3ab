package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Source    SourceConfig    `mapstructure:"source"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Trending  TrendingConfig  `mapstructure:"trending"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	OTel      OTelConfig      `mapstructure:"otel"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings. There is deliberately no
// write timeout: the seat status stream keeps its response open for
// the life of the connection.
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`

	// CDC topics, one per source table
	EventsTopic        string `mapstructure:"events_topic"`
	SessionsTopic      string `mapstructure:"sessions_topic"`
	SeatingMapsTopic   string `mapstructure:"seating_maps_topic"`
	DiscountsTopic     string `mapstructure:"discounts_topic"`
	TiersTopic         string `mapstructure:"tiers_topic"`
	CategoriesTopic    string `mapstructure:"categories_topic"`
	OrganizationsTopic string `mapstructure:"organizations_topic"`
	CoverPhotosTopic   string `mapstructure:"cover_photos_topic"`

	// Seat status domain-event topics
	SeatsLockedTopic   string `mapstructure:"seats_locked_topic"`
	SeatsReleasedTopic string `mapstructure:"seats_released_topic"`
	SeatsBookedTopic   string `mapstructure:"seats_booked_topic"`

	// WorkerCount is the number of concurrent CDC handler workers
	WorkerCount int `mapstructure:"worker_count"`
}

// CDCTopics returns all CDC topics in a fixed order
func (k *KafkaConfig) CDCTopics() []string {
	return []string{
		k.EventsTopic,
		k.SessionsTopic,
		k.SeatingMapsTopic,
		k.DiscountsTopic,
		k.TiersTopic,
		k.CategoriesTopic,
		k.OrganizationsTopic,
		k.CoverPhotosTopic,
	}
}

// SeatStatusTopics returns the seat status domain-event topics
func (k *KafkaConfig) SeatStatusTopics() []string {
	return []string{k.SeatsLockedTopic, k.SeatsReleasedTopic, k.SeatsBookedTopic}
}

// SourceConfig holds settings for the source-of-truth projection API
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	MaxRetryWindow time.Duration `mapstructure:"max_retry_window"`
}

// AssetsConfig holds public asset resolution settings
type AssetsConfig struct {
	// PublicBaseURL is prepended to stored cover photo keys
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// TrendingConfig holds trending engine settings
type TrendingConfig struct {
	RecomputeInterval time.Duration `mapstructure:"recompute_interval"`
	RankingCacheTTL   time.Duration `mapstructure:"ranking_cache_ttl"`
	TopLimit          int           `mapstructure:"top_limit"`
}

// BroadcastConfig holds seat status broadcast settings
type BroadcastConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, env vars alone are fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue, env vars might be set
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "event-query")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8085)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Database defaults
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "event_query_db")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "event-query")
	v.SetDefault("KAFKA_CLIENT_ID", "event-query")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "cdc.events")
	v.SetDefault("KAFKA_SESSIONS_TOPIC", "cdc.event_sessions")
	v.SetDefault("KAFKA_SEATING_MAPS_TOPIC", "cdc.session_seating_maps")
	v.SetDefault("KAFKA_DISCOUNTS_TOPIC", "cdc.discounts")
	v.SetDefault("KAFKA_TIERS_TOPIC", "cdc.tiers")
	v.SetDefault("KAFKA_CATEGORIES_TOPIC", "cdc.categories")
	v.SetDefault("KAFKA_ORGANIZATIONS_TOPIC", "cdc.organizations")
	v.SetDefault("KAFKA_COVER_PHOTOS_TOPIC", "cdc.event_cover_photos")
	v.SetDefault("KAFKA_SEATS_LOCKED_TOPIC", "ticketly.seats.locked")
	v.SetDefault("KAFKA_SEATS_RELEASED_TOPIC", "ticketly.seats.released")
	v.SetDefault("KAFKA_SEATS_BOOKED_TOPIC", "ticketly.seats.booked")
	v.SetDefault("KAFKA_WORKER_COUNT", 8)

	// Source projection API defaults
	v.SetDefault("SOURCE_BASE_URL", "http://localhost:8081")
	v.SetDefault("SOURCE_REQUEST_TIMEOUT", "10s")
	v.SetDefault("SOURCE_MAX_RETRIES", 5)
	v.SetDefault("SOURCE_RETRY_INTERVAL", "1s")
	v.SetDefault("SOURCE_MAX_RETRY_WINDOW", "2m")

	// Asset defaults
	v.SetDefault("ASSETS_PUBLIC_BASE_URL", "http://localhost:9000/event-assets")

	// Trending defaults
	v.SetDefault("TRENDING_RECOMPUTE_INTERVAL", "15m")
	v.SetDefault("TRENDING_RANKING_CACHE_TTL", "30m")
	v.SetDefault("TRENDING_TOP_LIMIT", 10)

	// Broadcast defaults
	v.SetDefault("BROADCAST_SUBSCRIBER_BUFFER", 16)

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "event-query")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Database
	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxOpenConns = v.GetInt("DATABASE_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DATABASE_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	brokersStr := v.GetString("KAFKA_BROKERS")
	cfg.Kafka.Brokers = strings.Split(brokersStr, ",")
	cfg.Kafka.ConsumerGroup = v.GetString("KAFKA_CONSUMER_GROUP")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")
	cfg.Kafka.EventsTopic = v.GetString("KAFKA_EVENTS_TOPIC")
	cfg.Kafka.SessionsTopic = v.GetString("KAFKA_SESSIONS_TOPIC")
	cfg.Kafka.SeatingMapsTopic = v.GetString("KAFKA_SEATING_MAPS_TOPIC")
	cfg.Kafka.DiscountsTopic = v.GetString("KAFKA_DISCOUNTS_TOPIC")
	cfg.Kafka.TiersTopic = v.GetString("KAFKA_TIERS_TOPIC")
	cfg.Kafka.CategoriesTopic = v.GetString("KAFKA_CATEGORIES_TOPIC")
	cfg.Kafka.OrganizationsTopic = v.GetString("KAFKA_ORGANIZATIONS_TOPIC")
	cfg.Kafka.CoverPhotosTopic = v.GetString("KAFKA_COVER_PHOTOS_TOPIC")
	cfg.Kafka.SeatsLockedTopic = v.GetString("KAFKA_SEATS_LOCKED_TOPIC")
	cfg.Kafka.SeatsReleasedTopic = v.GetString("KAFKA_SEATS_RELEASED_TOPIC")
	cfg.Kafka.SeatsBookedTopic = v.GetString("KAFKA_SEATS_BOOKED_TOPIC")
	cfg.Kafka.WorkerCount = v.GetInt("KAFKA_WORKER_COUNT")

	// Source
	cfg.Source.BaseURL = v.GetString("SOURCE_BASE_URL")
	cfg.Source.RequestTimeout = v.GetDuration("SOURCE_REQUEST_TIMEOUT")
	cfg.Source.MaxRetries = v.GetInt("SOURCE_MAX_RETRIES")
	cfg.Source.RetryInterval = v.GetDuration("SOURCE_RETRY_INTERVAL")
	cfg.Source.MaxRetryWindow = v.GetDuration("SOURCE_MAX_RETRY_WINDOW")

	// Assets
	cfg.Assets.PublicBaseURL = v.GetString("ASSETS_PUBLIC_BASE_URL")

	// Trending
	cfg.Trending.RecomputeInterval = v.GetDuration("TRENDING_RECOMPUTE_INTERVAL")
	cfg.Trending.RankingCacheTTL = v.GetDuration("TRENDING_RANKING_CACHE_TTL")
	cfg.Trending.TopLimit = v.GetInt("TRENDING_TOP_LIMIT")

	// Broadcast
	cfg.Broadcast.SubscriberBuffer = v.GetInt("BROADCAST_SUBSCRIBER_BUFFER")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}

	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base URL is required")
	}

	if c.Broadcast.SubscriberBuffer <= 0 {
		return fmt.Errorf("broadcast subscriber buffer must be positive")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
