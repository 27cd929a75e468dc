package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pelviu-funnel/internal/common/config"
	"pelviu-funnel/internal/common/logger"
)

// Deps carries the backend connections the configured store may need.
type Deps struct {
	Redis    redis.Cmdable
	Postgres *sql.DB
	SQLite   *sql.DB
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig, deps Deps, log logger.Logger) (*SlotStore, error) {
	slot, err := newSlot(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}
	return NewSlotStore(slot, log), nil
}

func newSlot(ctx context.Context, cfg config.StoreConfig, deps Deps) (Slot, error) {
	switch cfg.Backend {
	case "", config.StoreBackendMemory:
		return NewMemorySlot(), nil

	case config.StoreBackendFile:
		return NewFileSlot(cfg.FilePath)

	case config.StoreBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis store selected but no redis client was provided")
		}
		return NewRedisSlot(deps.Redis, cfg.SlotKey), nil

	case config.StoreBackendPostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("postgres store selected but no database was provided")
		}
		slot := NewSQLSlot(deps.Postgres, DialectPostgres, cfg.SlotKey)
		if err := slot.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return slot, nil

	case config.StoreBackendSQLite:
		if deps.SQLite == nil {
			return nil, fmt.Errorf("sqlite store selected but no database was provided")
		}
		slot := NewSQLSlot(deps.SQLite, DialectSQLite, cfg.SlotKey)
		if err := slot.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return slot, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
