package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"

	"gorm.io/gorm/logger"
)

// OpenSlot builds the slot selected by cfg.Storage.Backend, wrapped in a
// circuit breaker when cfg.Breaker is enabled.
func OpenSlot(cfg *config.Config) (Slot, error) {
	var (
		slot Slot
		err  error
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		slot = NewMemorySlot()
	case config.BackendFile:
		slot, err = NewFileSlot(cfg.Storage.Dir)
	case config.BackendRedis:
		slot = NewRedisSlot(&RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			OpTimeout:    cfg.Redis.ReadTimeout,
		})
	case config.BackendSQLite:
		slot, err = openSQLSlot(&database.PoolConfig{
			Driver:       database.DriverSQLite,
			DSN:          cfg.Storage.SQLitePath,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			LogLevel:     logger.Warn,
		}, cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		slot, err = openSQLSlot(&database.PoolConfig{
			Driver:          database.DriverPostgres,
			DSN:             cfg.GetDatabaseDSN(),
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			LogLevel:        logger.Warn,
		}, "")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Breaker.Enabled {
		slot = NewGuardedSlot(slot, NewCircuitBreaker(&CircuitBreakerConfig{
			MaxFailures:      cfg.Breaker.MaxFailures,
			Timeout:          cfg.Breaker.Timeout,
			HalfOpenMaxCalls: 1,
		}))
	}

	return slot, nil
}

func openSQLSlot(poolConfig *database.PoolConfig, file string) (Slot, error) {
	if file != "" && file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	pool, err := database.NewDatabasePool(poolConfig)
	if err != nil {
		return nil, err
	}

	slot, err := NewGormSlot(pool.DB)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return slot, nil
}
