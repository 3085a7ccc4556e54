package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/kitsune-sumo/settings/cache/internal/tracking"
	"github.com/kitsune-sumo/settings/logger"
)

// Manager resolves logical backend roles to connected caches. Connections
// are opened on first use, once per distinct URL, so roles that point at
// the same URL share one Cache. Callers must not Close a Cache obtained from
// the Manager; Close the Manager instead.
type Manager struct {
	backends  map[string]string
	connector Connector
	log       logger.Logger

	mu     sync.RWMutex
	caches map[string]Cache // keyed by URL
	closed bool
	sfg    singleflight.Group

	created           atomic.Int64
	failures          atomic.Int64
	unregisterMetrics func()
	unregisterOnce    sync.Once
}

// NewManager creates a manager over a role -> URL mapping, typically
// config.Redis.Backends.
func NewManager(backends map[string]string, connector Connector, log logger.Logger) (*Manager, error) {
	if connector == nil {
		return nil, fmt.Errorf("connector function is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	m := &Manager{
		backends:  maps.Clone(backends),
		connector: connector,
		log:       log,
		caches:    make(map[string]Cache),
	}
	m.unregisterMetrics = tracking.RegisterManagerMetrics(m.metricsStats)
	return m, nil
}

func (m *Manager) metricsStats() tracking.ManagerMetricsStats {
	m.mu.RLock()
	active := len(m.caches)
	m.mu.RUnlock()

	return tracking.ManagerMetricsStats{
		ActiveCaches: active,
		TotalCreated: int(m.created.Load()),
		Errors:       int(m.failures.Load()),
	}
}

// Roles returns the configured backend roles in sorted order.
func (m *Manager) Roles() []string {
	return slices.Sorted(maps.Keys(m.backends))
}

// URL returns the connection URL configured for role.
func (m *Manager) URL(role string) (string, bool) {
	u, ok := m.backends[role]
	return u, ok
}

// Get returns the cache for role, connecting on first use.
func (m *Manager) Get(ctx context.Context, role string) (Cache, error) {
	url, ok := m.backends[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, role)
	}

	if c, err := m.getExisting(url); c != nil || err != nil {
		return c, err
	}

	result, err, _ := m.sfg.Do(url, func() (any, error) {
		if c, err := m.getExisting(url); c != nil || err != nil {
			return c, err
		}
		return m.connect(ctx, role, url)
	})
	if err != nil {
		return nil, err
	}

	return result.(Cache), nil
}

func (m *Manager) getExisting(url string) (Cache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.caches[url], nil
}

func (m *Manager) connect(ctx context.Context, role, url string) (Cache, error) {
	c, err := m.connector(ctx, url)
	if err != nil {
		m.failures.Add(1)
		return nil, fmt.Errorf("failed to connect backend %q: %w", role, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		_ = c.Close()
		return nil, ErrClosed
	}
	m.caches[url] = c
	m.created.Add(1)

	m.log.Info().
		Str("role", role).
		Str("url", url).
		Msg("Cache backend connected")

	return c, nil
}

// Close closes every connected cache. Subsequent Get calls return ErrClosed.
func (m *Manager) Close() error {
	// The metrics callback takes m.mu, so unregister before locking.
	m.unregisterOnce.Do(m.unregisterMetrics)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for url, c := range m.caches {
		if err := c.Close(); err != nil {
			m.failures.Add(1)
			errs = append(errs, fmt.Errorf("failed to close cache %q: %w", url, err))
		}
	}
	clear(m.caches)

	return errors.Join(errs...)
}
