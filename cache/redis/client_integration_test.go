//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsune-sumo/settings/cache"
	"github.com/kitsune-sumo/settings/testing/containers"
)

func TestClientAgainstRedisServer(t *testing.T) {
	ctx := context.Background()
	srv := containers.StartRedis(ctx, t)

	mgr, err := cache.NewManager(srv.Backends("default", "karma", "helpfulvotes"), Connector(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	karma, err := mgr.Get(ctx, "karma")
	require.NoError(t, err)
	votes, err := mgr.Get(ctx, "helpfulvotes")
	require.NoError(t, err)
	assert.Same(t, karma, votes)

	require.NoError(t, karma.Set(ctx, testKey, []byte("1"), time.Minute))
	n, err := karma.Incr(ctx, testKey, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	require.NoError(t, karma.Health(ctx))

	client := karma.(*Client)
	assert.Equal(t, containers.TestRedisDB, client.Config().Database)
	assert.Equal(t, 500*time.Millisecond, client.Config().SocketTimeout)
}
