package config

import (
	"maps"
	"slices"
)

// Test backend target. Port 6383 db 2 is the redis test config; nothing else
// on a developer machine or CI box uses it.
const testRedisURL = "redis://localhost:6383?socket_timeout=0.5&db=2"

var testIndexes = map[string]any{
	"default": "test_default",
	"other":   "test_other",
}

// testOverrides is applied on top of the base settings when running tests.
// It is never mutated after package init; TestOverrides hands out copies.
var testOverrides = map[string]any{
	KeySearchLiveIndexing: false,
	KeySearchIndexPrefix:  "sumotest",
	KeySearchIndexes:      testIndexes,
	KeySearchWriteIndexes: testIndexes,

	// Tasks run in the caller's goroutine.
	KeyTasksAlwaysEager: true,

	KeyRedisBackends: map[string]any{
		"default":      testRedisURL,
		"karma":        testRedisURL,
		"helpfulvotes": testRedisURL,
	},

	// Some cron jobs are skipped on stage.
	KeyStage: false,
}

// TestOverrides returns a copy of the test override table keyed by
// dotted config path.
func TestOverrides() map[string]any {
	out := make(map[string]any, len(testOverrides))
	for k, v := range testOverrides {
		out[k] = copyValue(v)
	}
	return out
}

// TestOverrideKeys returns the override table keys in sorted order.
func TestOverrideKeys() []string {
	return slices.Sorted(maps.Keys(testOverrides))
}

func copyValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, inner := range m {
		out[k] = copyValue(inner)
	}
	return out
}
