package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kitsune-sumo/settings/cache/internal/tracking"
)

func setupMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	tracking.ResetForTesting()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(prev)
		tracking.ResetForTesting()
	})
	return reader
}

func TestClientRecordsOperationMetrics(t *testing.T) {
	reader := setupMeterProvider(t)
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	_, _ = c.Get(ctx, testKey)
	require.NoError(t, c.Set(ctx, testKey, []byte("1"), 0))
	_, err := c.Get(ctx, testKey)
	require.NoError(t, err)
	_, err = c.Incr(ctx, "karma:total", 1)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := make(map[string]int64)
	operations := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					op, _ := dp.Attributes.Value(attribute.Key("db.operation.name"))
					ns, _ := dp.Attributes.Value(attribute.Key("db.namespace"))
					assert.Equal(t, "2", ns.AsString())
					operations[op.AsString()] = true
				}
			}
		}
	}

	assert.Equal(t, int64(1), sums["cache.hit"])
	assert.Equal(t, int64(1), sums["cache.miss"])
	for _, op := range []string{"get", "set", "incr"} {
		assert.True(t, operations[op], op)
	}
}
