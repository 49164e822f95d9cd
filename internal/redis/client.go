package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client owns the shared go-redis connection behind the respect cache. One
// client serves both the per-user balance entries and the leaderboard keys.
type Client struct {
	rdb *redis.Client
}

// NewClient builds a client from a redis:// URL. Connectivity is not checked
// here; cmd/server pings (with retry) before wiring the cache.
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	return &Client{rdb: rdb}, nil
}

// Ping verifies the Redis connection. Also backs the /health/ready check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying returns the raw go-redis client for the cache layer.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}
