package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Option adjusts client options parsed from the URL.
type Option func(*redis.Options)

// WithPoolSize sets the connection pool size.
func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// WithTimeouts sets the dial and read/write timeouts.
func WithTimeouts(dial, readWrite time.Duration) Option {
	return func(o *redis.Options) {
		if dial > 0 {
			o.DialTimeout = dial
		}
		if readWrite > 0 {
			o.ReadTimeout = readWrite
			o.WriteTimeout = readWrite
		}
	}
}

// NewClient connects to redisURL and verifies the server answers.
// The cache, idempotency store and event channel all share this client.
func NewClient(ctx context.Context, redisURL string, opts ...Option) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
