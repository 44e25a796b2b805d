// Package redis provides the Redis connection used for the analysis
// cache, the daily scorer quota, and the background job queue.
package redis

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/platform/config"

	goredis "github.com/redis/go-redis/v9"
)

// New creates a Redis client from the configured URL and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}
