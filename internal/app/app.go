// Package app builds the shared infrastructure of the command-line entry points.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/config"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/cache"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/openfoodfacts"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/persistence"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// Bootstrap loads configuration and builds the logger
func Bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// OpenDatabase connects to the configured database
func OpenDatabase(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	return persistence.Open(DatabaseConfig(cfg.Database), log)
}

// DatabaseConfig converts the database section into persistence settings
func DatabaseConfig(db config.DatabaseConfig) persistence.Config {
	return persistence.Config{
		Driver:          db.Driver,
		DSN:             db.DSN(),
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		AutoMigrate:     db.AutoMigrate,
	}
}

// CloseDatabase releases the pool behind db
func CloseDatabase(db *gorm.DB, log *logger.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("Failed to close database", "error", err)
	}
}

// NewOpenFoodFactsClient builds the API client from the openfoodfacts section
func NewOpenFoodFactsClient(off config.OpenFoodFactsConfig, log *logger.Logger) *openfoodfacts.Client {
	return openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           off.BaseURL,
		UserAgent:         off.UserAgent,
		Timeout:           off.Timeout,
		MaxRetries:        off.MaxRetries,
		RequestsPerSecond: off.RequestsPerSecond,
		Backoff:           off.Delay,
	}, log)
}

// Cache is a response cache that must be closed on shutdown
type Cache interface {
	domain.CacheRepository
	Close() error
}

// NewCache builds the memory or redis cache named by the cache section
func NewCache(ctx context.Context, c config.CacheConfig) (Cache, error) {
	switch c.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, c.RedisURL, "foodfacts:")
		if err != nil {
			return nil, err
		}
		return redisCache, nil
	case "memory", "":
		return cache.NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache type %q", c.Type)
	}
}
