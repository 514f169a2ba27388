package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/goback-io/goback/internal/config"
)

// OpenRedis connects to the cache / rate-limit store and verifies the
// connection with a ping.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		DB:           cfg.DB.Redis.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// WaitForRedis pings the cache store until it responds or attempts are
// exhausted.
func WaitForRedis(ctx context.Context, cfg *config.Config, attempts int, interval time.Duration) (*redis.Client, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
		client, err := OpenRedis(ctx, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("redis not reachable after %d attempts: %w", attempts, lastErr)
}
