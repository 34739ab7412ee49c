package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/fitprint-backend/internal/data/db"
	"github.com/yungbote/fitprint-backend/internal/data/kv"
	"github.com/yungbote/fitprint-backend/internal/data/repos"
	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// Store is the opened persistence backend.
type Store struct {
	Backend  StoreBackend
	Wardrobe types.Store
	DB       *gorm.DB

	ping  func(ctx context.Context) error
	close func() error
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// openDB opens the relational backend named by cfg.
func openDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	switch cfg.StoreBackend {
	case StorePostgres:
		return db.OpenPostgres(log, cfg.Postgres)
	case StoreSQLite:
		return db.OpenSQLite(log, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("store backend %q is not relational", cfg.StoreBackend)
	}
}

func openStore(ctx context.Context, log *logger.Logger, cfg Config) (*Store, error) {
	log.Info("Opening store...", "backend", cfg.StoreBackend)

	if cfg.StoreBackend == StoreRedis {
		rdb, err := kv.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return &Store{
			Backend:  StoreRedis,
			Wardrobe: kv.NewRedisStore(log, rdb, cfg.RedisPrefix),
			ping:     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			close:    rdb.Close,
		}, nil
	}

	gdb, err := openDB(log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.StoreBackend, err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		return nil, fmt.Errorf("%s automigrate: %w", cfg.StoreBackend, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%s handle: %w", cfg.StoreBackend, err)
	}
	return &Store{
		Backend:  cfg.StoreBackend,
		Wardrobe: repos.NewWardrobeStore(gdb, log),
		DB:       gdb,
		ping:     sqlDB.PingContext,
		close:    sqlDB.Close,
	}, nil
}

// Migrate applies the relational schema. The Redis backend has none.
func Migrate(log *logger.Logger, cfg Config) error {
	if cfg.StoreBackend == StoreRedis {
		log.Info("Redis store has no schema to migrate")
		return nil
	}
	gdb, err := openDB(log, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		return err
	}
	log.Info("Schema migrated", "backend", cfg.StoreBackend)
	return nil
}
