package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(prev)
		ResetForTesting()
	})
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != cacheMeterName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data for %s", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordCacheOperationDuration(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordCacheOperation(context.Background(), OpSet, 50*time.Millisecond, false, nil, "2")

	metrics := collect(t, reader)
	m, ok := metrics[metricCacheOperationDuration]
	require.True(t, ok)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data")
	require.Len(t, hist.DataPoints, 1)

	attrs := hist.DataPoints[0].Attributes
	op, _ := attrs.Value(attribute.Key(attrDBOperation))
	assert.Equal(t, OpSet, op.AsString())
	ns, _ := attrs.Value(attribute.Key(attrDBNamespace))
	assert.Equal(t, "2", ns.AsString())
	_, hasHit := attrs.Value(attribute.Key(attrCacheHitStatus))
	assert.False(t, hasHit, "only lookups carry cache.hit")
}

func TestRecordCacheHitMiss(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordCacheOperation(ctx, OpGet, time.Millisecond, true, nil, "")
	RecordCacheOperation(ctx, OpGet, time.Millisecond, true, nil, "")
	RecordCacheOperation(ctx, OpGet, time.Millisecond, false, nil, "")
	RecordCacheOperation(ctx, OpIncr, time.Millisecond, false, nil, "")

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics[metricCacheHit]))
	assert.Equal(t, int64(1), sumOf(t, metrics[metricCacheMiss]))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("dial tcp: connection refused"), "connection_error"},
		{errors.New("i/o timeout"), "timeout"},
		{errors.New("cache closed"), "closed"},
		{errors.New("WRONGTYPE"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestRegisterManagerMetrics(t *testing.T) {
	reader := setupTestMeterProvider(t)

	stats := ManagerMetricsStats{ActiveCaches: 2, TotalCreated: 3, Errors: 1}
	unregister := RegisterManagerMetrics(func() ManagerMetricsStats { return stats })

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics[metricCacheManagerActiveCaches]))
	assert.Equal(t, int64(3), sumOf(t, metrics[metricCacheManagerTotalCreated]))
	assert.Equal(t, int64(1), sumOf(t, metrics[metricCacheManagerErrors]))

	unregister()
	if m, ok := collect(t, reader)[metricCacheManagerActiveCaches]; ok {
		assert.Zero(t, sumOf(t, m), "no observations after unregister")
	}
}
