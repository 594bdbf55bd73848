package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/resistance-game/avalon/pkg/game/types"
)

const redisKeyPrefix = "avalon:game:"

// RedisRepository stores game records in Redis. Expiry uses Redis' native
// TTL, so abandoned games disappear without a sweeper.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(ctx context.Context, redisURL string) (Repository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}
	return &RedisRepository{client: client}, nil
}

func (r *RedisRepository) Load(ctx context.Context, code string) (*types.Game, error) {
	b, err := r.client.Get(ctx, redisKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return nil, &ErrNotFound{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %v", err)
	}
	return decodeGame(b)
}

func (r *RedisRepository) Save(ctx context.Context, game *types.Game, ttl time.Duration) error {
	b, err := encodeGame(game)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+game.Code, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %v", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("failed to delete game: %v", err)
	}
	return nil
}

func (r *RedisRepository) Close(ctx context.Context) error {
	return r.client.Close()
}
