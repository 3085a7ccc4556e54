//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisImage is the image started by StartRedis.
const RedisImage = "redis:7-alpine"

// TestRedisDB is the database the test settings point every backend at.
const TestRedisDB = 2

// Redis is a running redis container.
type Redis struct {
	Host string
	Port int
}

// URL returns a backend URL in the settings format for db.
func (r *Redis) URL(db int) string {
	return fmt.Sprintf("redis://%s:%d?socket_timeout=0.5&db=%d", r.Host, r.Port, db)
}

// Backends maps every role to the container, on TestRedisDB.
func (r *Redis) Backends(roles ...string) map[string]string {
	out := make(map[string]string, len(roles))
	for _, role := range roles {
		out[role] = r.URL(TestRedisDB)
	}
	return out
}

// StartRedis starts a redis container that is removed when t finishes.
func StartRedis(ctx context.Context, t *testing.T) *Redis {
	t.Helper()
	requireDocker(ctx, t)

	c, err := tcredis.Run(ctx, RedisImage,
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(defaultStartupTimeout),
		),
	)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	terminateOnCleanup(t, "redis", c)

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get redis host: %v", err)
	}
	port, err := c.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("failed to get redis port: %v", err)
	}

	t.Logf("Redis container started at %s:%d", host, port.Int())
	return &Redis{Host: host, Port: port.Int()}
}
