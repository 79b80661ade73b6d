package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/debt-engine/internal/config"
)

// New opens the backend selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (SnapshotRepository, error) {
	key := cfg.Storage.SnapshotKey

	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageMemory, "":
		return NewMemoryRepository(), nil
	case config.StoragePostgres:
		db, err := OpenPostgres(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, db, key)
	case config.StorageSQLite:
		db, err := OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, db, key)
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		return NewRedisRepository(client, key), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openSQL(ctx context.Context, db *sqlx.DB, key string) (SnapshotRepository, error) {
	repo, err := NewSnapshotRepository(ctx, db, key)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
