package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "summary:"

// RedisCacheConfig configures the Redis summary cache.
type RedisCacheConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache keeps summaries in Redis under summary:<content_hash>.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies connectivity.
func NewRedisCache(cfg RedisCacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the underlying Redis client
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, contentHash string) (Summary, bool, error) {
	raw, err := r.client.Get(ctx, summaryKeyPrefix+contentHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, err
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return s, s.Text != "", nil
}

// Set stores the summary and resets its TTL.
func (r *RedisCache) Set(ctx context.Context, contentHash string, s Summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, summaryKeyPrefix+contentHash, b, r.ttl).Err()
}
