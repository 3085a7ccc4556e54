// Package redis implements cache.Cache on top of go-redis and parses the
// redis:// backend URLs found in redis.backends.
package redis

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kitsune-sumo/settings/cache"
	"github.com/kitsune-sumo/settings/cache/internal/tracking"
)

// Client implements the cache.Cache interface using Redis as the backend.
type Client struct {
	client *redis.Client
	config *Config
	closed atomic.Bool
}

var _ cache.Cache = (*Client)(nil)

// NewClient creates a new Redis cache client.
// Validates configuration and establishes connection.
func NewClient(cfg *Config) (*Client, error) {
	return Dial(context.Background(), cfg)
}

// Dial is NewClient with a caller-supplied context bounding the initial PING.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(cfg.Options())

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cache.NewConnectionError("ping", cfg.Address(), err)
	}

	return &Client{client: client, config: cfg}, nil
}

// Connector returns a cache.Connector that parses backend URLs and dials them.
func Connector() cache.Connector {
	return func(ctx context.Context, url string) (cache.Cache, error) {
		cfg, err := ParseURL(url)
		if err != nil {
			return nil, err
		}
		return Dial(ctx, cfg)
	}
}

// Config returns the configuration the client was created with.
func (c *Client) Config() *Config {
	return c.config
}

// Get retrieves a value from the cache.
// Returns cache.ErrNotFound if the key doesn't exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, cache.ErrClosed
	}

	start := time.Now()
	result, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		tracking.RecordCacheOperation(ctx, tracking.OpGet, time.Since(start), false, nil, c.namespace())
		return nil, cache.ErrNotFound
	}
	tracking.RecordCacheOperation(ctx, tracking.OpGet, time.Since(start), err == nil, err, c.namespace())
	return result, err
}

// Set stores a value in the cache with the specified TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}

	start := time.Now()
	err := c.client.Set(ctx, key, value, ttl).Err()
	tracking.RecordCacheOperation(ctx, tracking.OpSet, time.Since(start), false, err, c.namespace())
	return err
}

// Delete removes a value from the cache.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}

	start := time.Now()
	err := c.client.Del(ctx, key).Err()
	tracking.RecordCacheOperation(ctx, tracking.OpDelete, time.Since(start), false, err, c.namespace())
	return err
}

// Incr atomically adds delta to the counter at key.
func (c *Client) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	if c.closed.Load() {
		return 0, cache.ErrClosed
	}

	start := time.Now()
	n, err := c.client.IncrBy(ctx, key, delta).Result()
	tracking.RecordCacheOperation(ctx, tracking.OpIncr, time.Since(start), false, err, c.namespace())
	return n, err
}

// Health checks the health of the Redis connection.
func (c *Client) Health(ctx context.Context) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	tracking.RecordCacheOperation(ctx, tracking.OpHealth, time.Since(start), false, err, c.namespace())
	if err != nil {
		return cache.NewConnectionError("ping", c.config.Address(), err)
	}
	return nil
}

// namespace is the db.namespace metric attribute: the database number.
func (c *Client) namespace() string {
	return strconv.Itoa(c.config.Database)
}

// Close closes the Redis connection.
// Safe to call multiple times.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}
