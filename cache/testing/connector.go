package testing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kitsune-sumo/settings/cache"
)

// MockConnector hands out one MockCache per URL and counts connect calls.
// Pass Connect to cache.NewManager.
type MockConnector struct {
	mu     sync.Mutex
	caches map[string]*MockCache
	err    error
	calls  atomic.Int64
}

// NewMockConnector creates a connector whose caches are fresh MockCaches.
func NewMockConnector() *MockConnector {
	return &MockConnector{caches: make(map[string]*MockCache)}
}

// WithConnectFailure makes every Connect call fail with err.
func (c *MockConnector) WithConnectFailure(err error) *MockConnector {
	c.err = err
	return c
}

// Connect implements cache.Connector.
func (c *MockConnector) Connect(_ context.Context, url string) (cache.Cache, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m := NewMockCacheWithID(url)
	c.caches[url] = m
	return m, nil
}

// Calls returns the number of Connect calls.
func (c *MockConnector) Calls() int64 {
	return c.calls.Load()
}

// Cache returns the last cache created for url, or nil.
func (c *MockConnector) Cache(url string) *MockCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caches[url]
}
