// Package testing provides an in-memory cache.Cache and connector for unit
// tests that exercise cache consumers without a redis server.
//
// # Basic Usage
//
//	mock := testing.NewMockCache()
//	mock.Set(ctx, "karma:42", []byte("7"), time.Minute)
//	AssertValue(t, mock, "karma:42", []byte("7"))
//
// # Configurable Behavior
//
//	mock := testing.NewMockCache().
//	    WithGetFailure(cache.NewConnectionError("get", "localhost:6383", err)).
//	    WithDelay(100 * time.Millisecond)
//
// # Managers
//
// MockConnector plugs into cache.NewManager and records one MockCache per
// backend URL:
//
//	conn := testing.NewMockConnector()
//	mgr, _ := cache.NewManager(cfg.Redis.Backends, conn.Connect, nil)
//	c, _ := mgr.Get(ctx, "karma")
//	AssertOperationCount(t, conn.Cache(url), "Get", 0)
//
// Import with an alias, since the package name shadows the standard
// library's testing package:
//
//	import cachetest "github.com/kitsune-sumo/settings/cache/testing"
package testing
