package testing

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kitsune-sumo/settings/cache"
)

// MockCache is an in-memory cache.Cache for tests. It can be configured to
// fail or delay operations and counts every call.
//
// Example usage:
//
//	mock := NewMockCache()
//	mock.Set(ctx, "karma:42", []byte("7"), time.Minute)
//	data, err := mock.Get(ctx, "karma:42")
type MockCache struct {
	id string

	mu     sync.Mutex
	data   map[string]cacheEntry
	closed atomic.Bool

	delay       time.Duration
	getError    error
	setError    error
	deleteError error
	incrError   error
	healthError error
	closeError  error

	getCalls    atomic.Int64
	setCalls    atomic.Int64
	deleteCalls atomic.Int64
	incrCalls   atomic.Int64
	healthCalls atomic.Int64
	closeCalls  atomic.Int64

	onClose func(string)
}

var _ cache.Cache = (*MockCache)(nil)

type cacheEntry struct {
	value      []byte
	expiration time.Time // zero means no expiration
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// NewMockCache creates a MockCache with default behavior.
func NewMockCache() *MockCache {
	return NewMockCacheWithID("mock")
}

// NewMockCacheWithID creates a MockCache with a specific ID, e.g. the
// backend URL it stands in for.
func NewMockCacheWithID(id string) *MockCache {
	return &MockCache{
		id:   id,
		data: make(map[string]cacheEntry),
	}
}

// WithDelay configures a delay for all operations except Close.
func (m *MockCache) WithDelay(delay time.Duration) *MockCache {
	m.delay = delay
	return m
}

// WithGetFailure configures Get operations to return an error.
func (m *MockCache) WithGetFailure(err error) *MockCache {
	m.getError = err
	return m
}

// WithSetFailure configures Set operations to return an error.
func (m *MockCache) WithSetFailure(err error) *MockCache {
	m.setError = err
	return m
}

// WithDeleteFailure configures Delete operations to return an error.
func (m *MockCache) WithDeleteFailure(err error) *MockCache {
	m.deleteError = err
	return m
}

// WithIncrFailure configures Incr operations to return an error.
func (m *MockCache) WithIncrFailure(err error) *MockCache {
	m.incrError = err
	return m
}

// WithHealthFailure configures Health operations to return an error.
func (m *MockCache) WithHealthFailure(err error) *MockCache {
	m.healthError = err
	return m
}

// WithCloseFailure configures Close operations to return an error.
func (m *MockCache) WithCloseFailure(err error) *MockCache {
	m.closeError = err
	return m
}

// WithCloseCallback registers a callback invoked with the cache ID when
// Close succeeds.
func (m *MockCache) WithCloseCallback(callback func(string)) *MockCache {
	m.onClose = callback
	return m
}

// before runs the shared prologue of every operation.
func (m *MockCache) before(ctx context.Context, configured error) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.closed.Load() {
		return cache.ErrClosed
	}
	return configured
}

// Get retrieves a value from the cache.
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalls.Add(1)
	if err := m.before(ctx, m.getError); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	if entry.expired(time.Now()) {
		delete(m.data, key)
		return nil, cache.ErrNotFound
	}
	return slices.Clone(entry.value), nil
}

// Set stores a value with ttl. A zero ttl never expires.
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls.Add(1)
	if err := m.before(ctx, m.setError); err != nil {
		return err
	}
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}

	entry := cacheEntry{value: slices.Clone(value)}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes a value. Missing keys are not an error.
func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.deleteCalls.Add(1)
	if err := m.before(ctx, m.deleteError); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Incr adds delta to the decimal counter at key, starting from 0. The
// counter keeps the expiration of the existing entry.
func (m *MockCache) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	m.incrCalls.Add(1)
	if err := m.before(ctx, m.incrError); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	entry, ok := m.data[key]
	if ok && entry.expired(time.Now()) {
		entry, ok = cacheEntry{}, false
	}
	if ok {
		n, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer", key)
		}
		current = n
	}

	current += delta
	entry.value = []byte(strconv.FormatInt(current, 10))
	m.data[key] = entry
	return current, nil
}

// Health checks cache health.
func (m *MockCache) Health(ctx context.Context) error {
	m.healthCalls.Add(1)
	return m.before(ctx, m.healthError)
}

// Close closes the cache and drops its contents.
func (m *MockCache) Close() error {
	m.closeCalls.Add(1)

	if m.closeError != nil {
		return m.closeError
	}
	if !m.closed.CompareAndSwap(false, true) {
		return cache.ErrClosed
	}

	m.Clear()
	if m.onClose != nil {
		m.onClose(m.id)
	}
	return nil
}

// OperationCount returns the number of times an operation was called.
// Supported operations: "Get", "Set", "Delete", "Incr", "Health", "Close"
func (m *MockCache) OperationCount(operation string) int64 {
	switch operation {
	case "Get":
		return m.getCalls.Load()
	case "Set":
		return m.setCalls.Load()
	case "Delete":
		return m.deleteCalls.Load()
	case "Incr":
		return m.incrCalls.Load()
	case "Health":
		return m.healthCalls.Load()
	case "Close":
		return m.closeCalls.Load()
	default:
		return 0
	}
}

// IsClosed returns whether the cache has been closed.
func (m *MockCache) IsClosed() bool {
	return m.closed.Load()
}

// Has returns whether a key is stored, ignoring expiration.
func (m *MockCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Len returns the number of stored entries, including expired ones.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Clear removes all entries.
func (m *MockCache) Clear() {
	m.mu.Lock()
	clear(m.data)
	m.mu.Unlock()
}

// ResetCounters resets all operation counters to zero.
func (m *MockCache) ResetCounters() {
	m.getCalls.Store(0)
	m.setCalls.Store(0)
	m.deleteCalls.Store(0)
	m.incrCalls.Store(0)
	m.healthCalls.Store(0)
	m.closeCalls.Store(0)
}

// ID returns the mock cache ID.
func (m *MockCache) ID() string {
	return m.id
}

// AllKeys returns the stored keys in sorted order.
func (m *MockCache) AllKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
