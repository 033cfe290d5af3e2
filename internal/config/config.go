// Package config provides configuration management for the sync engine.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Queue      QueueConfig
	Logging    LoggingConfig
	Warehouse  DatabaseConfig
	Catalog    DatabaseConfig
	Cache      CacheConfig
	Projection ProjectionConfig
	Auth       AuthConfig
	Server     ServerConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains Postgres connection configuration. It is used for
// both the authoritative warehouse and the secondary read-optimized catalog.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// URL renders the pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?pool_max_conns=%d&pool_min_conns=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.MaxConnections, d.MinConnections)
}

// QueueConfig contains RabbitMQ connection and routing configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type QueueConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// CacheConfig contains Redis configuration for the cache invalidator.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProjectionConfig contains the wide-column store settings.
type ProjectionConfig struct {
	Table  string
	Region string
}

// AuthConfig maps API keys to the roles they carry.
type AuthConfig struct {
	APIKeys map[string][]string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Warehouse (authoritative store)
	viper.SetDefault("warehouse.host", "localhost")
	viper.SetDefault("warehouse.port", 5432)
	viper.SetDefault("warehouse.name", "warehouse")
	viper.SetDefault("warehouse.user", "postgres")
	viper.SetDefault("warehouse.password", "postgres")
	viper.SetDefault("warehouse.maxconnections", 10)
	viper.SetDefault("warehouse.minconnections", 2)
	viper.SetDefault("warehouse.maxidletime", 10*time.Minute)
	viper.SetDefault("warehouse.maxlifetime", 1*time.Hour)

	// Catalog (secondary read-optimized store)
	viper.SetDefault("catalog.host", "localhost")
	viper.SetDefault("catalog.port", 5433)
	viper.SetDefault("catalog.name", "realtime_catalog")
	viper.SetDefault("catalog.user", "postgres")
	viper.SetDefault("catalog.password", "postgres")
	viper.SetDefault("catalog.maxconnections", 10)
	viper.SetDefault("catalog.minconnections", 2)
	viper.SetDefault("catalog.maxidletime", 10*time.Minute)
	viper.SetDefault("catalog.maxlifetime", 1*time.Hour)

	// Queue
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.exchange", "catalog.sync")
	viper.SetDefault("queue.queue", "catalog.sync.notifications")
	viper.SetDefault("queue.routingkey", "catalog.sync.mutation")

	// Cache
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)

	// Projection (wide-column store)
	viper.SetDefault("projection.table", "shadows-catalog-dev")
	viper.SetDefault("projection.region", "us-east-1")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
