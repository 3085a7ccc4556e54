// Package settingstest loads test-session settings and points the redis
// backends at an in-memory server.
package settingstest

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/kitsune-sumo/settings/cache"
	"github.com/kitsune-sumo/settings/cache/redis"
	"github.com/kitsune-sumo/settings/config"
)

// TestRedisDB is the database number used by the test redis backends.
const TestRedisDB = 2

// Load returns base with the test override table applied.
func Load(t testing.TB, base map[string]any) *config.Config {
	t.Helper()
	cfg, err := config.LoadForTesting(base)
	require.NoError(t, err)
	return cfg
}

// LoadYAML is Load with base settings given as a settings.yaml document.
func LoadYAML(t testing.TB, base string) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithOptions(config.Options{
		BaseYAML:  []byte(base),
		SkipFiles: true,
		SkipEnv:   true,
		Testing:   true,
	})
	require.NoError(t, err)
	return cfg
}

// Redis starts a miniredis server for the duration of t and returns the
// server plus a backends map routing every test role to it on TestRedisDB.
func Redis(t testing.TB) (*miniredis.Miniredis, map[string]string) {
	t.Helper()
	mr := miniredis.RunT(t)

	url := fmt.Sprintf("redis://%s?socket_timeout=0.5&db=%d", mr.Addr(), TestRedisDB)
	backends := make(map[string]string)
	for role := range config.TestOverrides()[config.KeyRedisBackends].(map[string]any) {
		backends[role] = url
	}
	return mr, backends
}

// LoadWithRedis is Load followed by Redis, with redis.backends replaced by
// the in-memory server in both the typed config and its accessors.
func LoadWithRedis(t testing.TB, base map[string]any) (*config.Config, *miniredis.Miniredis) {
	t.Helper()
	cfg := Load(t, base)
	mr, backends := Redis(t)

	urls := make(map[string]any, len(backends))
	for role, url := range backends {
		urls[role] = url
	}
	require.NoError(t, cfg.Override(map[string]any{config.KeyRedisBackends: urls}))
	return cfg, mr
}

// Caches returns a cache manager over cfg's redis backends, closed when t finishes.
func Caches(t testing.TB, cfg *config.Config) *cache.Manager {
	t.Helper()
	mgr, err := cache.NewManager(cfg.Redis.Backends, redis.Connector(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// Ping dials every backend role in mgr.
func Ping(ctx context.Context, t testing.TB, mgr *cache.Manager) {
	t.Helper()
	for _, role := range mgr.Roles() {
		c, err := mgr.Get(ctx, role)
		require.NoError(t, err, role)
		require.NoError(t, c.Health(ctx), role)
	}
}
