package testing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kitsune-sumo/settings/cache"
)

// AssertCacheHit asserts that key can be read from c.
//
// Example:
//
//	mock := NewMockCache()
//	mock.Set(ctx, "karma:42", []byte("7"), time.Minute)
//	AssertCacheHit(t, mock, "karma:42")
func AssertCacheHit(t *testing.T, c cache.Cache, key string) {
	t.Helper()

	if _, err := c.Get(context.Background(), key); err != nil {
		t.Errorf("expected cache hit for key %q, got error: %v", key, err)
	}
}

// AssertCacheMiss asserts that key is not in c.
func AssertCacheMiss(t *testing.T, c cache.Cache, key string) {
	t.Helper()

	_, err := c.Get(context.Background(), key)
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected cache miss (ErrNotFound) for key %q, got: %v", key, err)
	}
}

// AssertValue asserts that key holds expected.
func AssertValue(t *testing.T, c cache.Cache, key string, expected []byte) {
	t.Helper()

	got, err := c.Get(context.Background(), key)
	if err != nil {
		t.Errorf("expected value for key %q, got error: %v", key, err)
		return
	}
	if !bytes.Equal(got, expected) {
		t.Errorf("expected %q for key %q, got %q", expected, key, got)
	}
}

// AssertOperationCount asserts that operation was called exactly expected times.
//
// Supported operations: "Get", "Set", "Delete", "Incr", "Health", "Close"
func AssertOperationCount(t *testing.T, mock *MockCache, operation string, expected int64) {
	t.Helper()

	if actual := mock.OperationCount(operation); actual != expected {
		t.Errorf("expected %d %s operations, got %d", expected, operation, actual)
	}
}

// AssertCacheClosed asserts that the cache has been closed.
func AssertCacheClosed(t *testing.T, mock *MockCache) {
	t.Helper()

	if !mock.IsClosed() {
		t.Error("expected cache to be closed, but it is still open")
	}
}

// AssertCacheOpen asserts that the cache has not been closed.
func AssertCacheOpen(t *testing.T, mock *MockCache) {
	t.Helper()

	if mock.IsClosed() {
		t.Error("expected cache to be open, but it is closed")
	}
}

// AssertCacheSize asserts the number of stored entries.
func AssertCacheSize(t *testing.T, mock *MockCache, expected int) {
	t.Helper()

	if actual := mock.Len(); actual != expected {
		t.Errorf("expected %d entries, got %d (keys: %v)", expected, actual, mock.AllKeys())
	}
}
