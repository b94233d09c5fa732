// Package state holds the process-wide handles the host passes to every
// extension: settings, logger, database, cache, and a caller for invoking
// other extensions. The platform imposes no locking on these handles;
// conflicts over shared resources are each extension's responsibility.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/panelkit/panel/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Caller invokes a named capability on whichever extension handles it.
// The extension registry implements it.
type Caller interface {
	Call(ctx context.Context, name string, args ...any) (any, bool)
}

// State is the opaque aggregate handed to extension hooks.
type State struct {
	Settings *config.Settings
	Logger   *zap.Logger
	DB       *gorm.DB
	Cache    redis.UniversalClient // nil when no cache is configured
	Calls    Caller
}

// Call forwards to Calls, answering unhandled when no caller is attached.
func (s *State) Call(ctx context.Context, name string, args ...any) (any, bool) {
	if s == nil || s.Calls == nil {
		return nil, false
	}
	return s.Calls.Call(ctx, name, args...)
}

// Open connects the database and, when configured, the cache.
func Open(ctx context.Context, settings *config.Settings, logger *zap.Logger) (*State, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := OpenDatabase(settings.Database, logger)
	if err != nil {
		return nil, err
	}

	cache, err := OpenCache(ctx, settings.Cache, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	return &State{
		Settings: settings,
		Logger:   logger,
		DB:       db,
		Cache:    cache,
	}, nil
}

// OpenDatabase opens a gorm connection for the configured driver.
func OpenDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}

	logger.Info("database connected", zap.String("driver", cfg.Driver))
	return db, nil
}

// OpenCache connects to redis. It returns a nil client when cfg.Addr is empty.
func OpenCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	if cfg.Addr == "" {
		logger.Info("cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting cache %s: %w", cfg.Addr, err)
	}

	logger.Info("cache connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}

// Close releases the database and cache handles.
func (s *State) Close() error {
	var errs []error
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// ensureSQLiteDir creates the parent directory of a file-backed sqlite DSN.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
