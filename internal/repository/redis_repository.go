package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/debt-engine/internal/domain"
)

type redisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository stores the snapshot under a single redis key without
// expiry.
func NewRedisRepository(client *redis.Client, key string) SnapshotRepository {
	return &redisRepository{client: client, key: key}
}

func (r *redisRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (r *redisRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *redisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisRepository) Close() error {
	return r.client.Close()
}
