package settingstest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsune-sumo/settings/config"
)

func TestLoadAppliesOverridesOverBase(t *testing.T) {
	cfg := Load(t, map[string]any{
		config.KeyAppName:            "support",
		config.KeySearchIndexPrefix:  "sumo_prod",
		config.KeySearchLiveIndexing: true,
		config.KeySearchURL:          "http://es.internal:9200",
	})

	assert.Equal(t, "support", cfg.App.Name)
	assert.Equal(t, "sumotest", cfg.Search.IndexPrefix)
	assert.False(t, cfg.Search.LiveIndexing)
	assert.True(t, cfg.Tasks.AlwaysEager)
	assert.Equal(t, "http://es.internal:9200", cfg.Search.URL)
}

func TestLoadYAML(t *testing.T) {
	cfg := LoadYAML(t, `
stage: true
celery:
  queue: bulk
`)
	assert.False(t, cfg.Stage)
	assert.Equal(t, "bulk", cfg.Tasks.Queue)
}

func TestRedisCoversEveryTestRole(t *testing.T) {
	_, backends := Redis(t)

	assert.Len(t, backends, 3)
	for _, role := range []string{"default", "karma", "helpfulvotes"} {
		assert.Contains(t, backends[role], "db=2", role)
	}
}

func TestLoadWithRedisRoutesToMemoryServer(t *testing.T) {
	ctx := context.Background()
	cfg, mr := LoadWithRedis(t, nil)
	mgr := Caches(t, cfg)
	Ping(ctx, t, mgr)

	c, err := mgr.Get(ctx, "karma")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "answer", []byte("42"), time.Minute))

	assert.Equal(t, cfg.Redis.Backends, cfg.GetStringMap(config.KeyRedisBackends))
	assert.Contains(t, cfg.GetStringMap(config.KeyRedisBackends)["karma"], mr.Addr())
	assert.NotContains(t, cfg.GetString(config.KeyRedisBackends+".default"), "6383")

	got, err := mr.DB(TestRedisDB).Get("answer")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
	assert.False(t, mr.Exists("answer"))
}
