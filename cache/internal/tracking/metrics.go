package tracking

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	cacheMeterName = "github.com/kitsune-sumo/settings/cache"

	// Redis is a database, so operation timing uses the db client convention.
	metricCacheOperationDuration = "db.client.operation.duration" // Histogram in seconds

	metricCacheHit  = "cache.hit"
	metricCacheMiss = "cache.miss"

	metricCacheManagerActiveCaches = "cache.manager.active_caches" // UpDownCounter
	metricCacheManagerTotalCreated = "cache.manager.total_created" // Counter
	metricCacheManagerErrors       = "cache.manager.errors"        // Counter

	attrDBSystem       = "db.system.name"
	attrDBOperation    = "db.operation.name"
	attrDBNamespace    = "db.namespace"
	attrErrorType      = "error.type"
	attrCacheHitStatus = "cache.hit"
)

// Cache operation names
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpIncr   = "incr"
	OpHealth = "ping"
)

var (
	cacheMeter  metric.Meter
	meterOnce   sync.Once
	meterInitMu sync.Mutex

	cacheOperationDuration metric.Float64Histogram
	cacheHitCounter        metric.Int64Counter
	cacheMissCounter       metric.Int64Counter
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize cache metric %s: %v\n", metricName, err)
	}
}

func initCacheMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if cacheMeter != nil {
		return
	}
	cacheMeter = otel.Meter(cacheMeterName)

	var err error
	cacheOperationDuration, err = cacheMeter.Float64Histogram(
		metricCacheOperationDuration,
		metric.WithDescription("Duration of redis operations"),
		metric.WithUnit("s"),
	)
	logMetricError(metricCacheOperationDuration, err)

	cacheHitCounter, err = cacheMeter.Int64Counter(
		metricCacheHit,
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	logMetricError(metricCacheHit, err)

	cacheMissCounter, err = cacheMeter.Int64Counter(
		metricCacheMiss,
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	logMetricError(metricCacheMiss, err)
}

func ensureCacheMeterInitialized() {
	meterOnce.Do(initCacheMeter)
}

// RecordCacheOperation records the duration of one cache operation. Get
// operations also count a hit or a miss. namespace is the redis database
// number, or empty.
func RecordCacheOperation(ctx context.Context, operation string, duration time.Duration, hit bool, err error, namespace string) {
	ensureCacheMeterInitialized()

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, "redis"),
		attribute.String(attrDBOperation, operation),
	}
	if namespace != "" {
		attrs = append(attrs, attribute.String(attrDBNamespace, namespace))
	}
	if operation == OpGet {
		attrs = append(attrs, attribute.Bool(attrCacheHitStatus, hit))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, classifyError(err)))
	}

	if cacheOperationDuration != nil {
		cacheOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}

	if operation != OpGet {
		return
	}
	counter := cacheMissCounter
	if hit {
		counter = cacheHitCounter
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// classifyError buckets an error for the error.type attribute.
func classifyError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection"):
		return "connection_error"
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "closed"):
		return "closed"
	default:
		return "error"
	}
}

// ManagerMetricsStats holds the counters reported for a cache manager.
type ManagerMetricsStats struct {
	ActiveCaches int
	TotalCreated int
	Errors       int
}

type managerMetricsRegistration struct {
	statsProvider func() ManagerMetricsStats

	activeCaches metric.Int64ObservableUpDownCounter
	totalCreated metric.Int64ObservableCounter
	errors       metric.Int64ObservableCounter
}

func (r *managerMetricsRegistration) observe(_ context.Context, observer metric.Observer) error {
	stats := r.statsProvider()
	if r.activeCaches != nil {
		observer.ObserveInt64(r.activeCaches, int64(stats.ActiveCaches))
	}
	if r.totalCreated != nil {
		observer.ObserveInt64(r.totalCreated, int64(stats.TotalCreated))
	}
	if r.errors != nil {
		observer.ObserveInt64(r.errors, int64(stats.Errors))
	}
	return nil
}

// RegisterManagerMetrics registers observable manager metrics. statsProvider
// is called on every collection. The returned func unregisters them.
//
// Metrics registered:
//   - cache.manager.active_caches: open connections
//   - cache.manager.total_created: connections opened since start
//   - cache.manager.errors: failed connects and closes
func RegisterManagerMetrics(statsProvider func() ManagerMetricsStats) func() {
	ensureCacheMeterInitialized()

	noop := func() {}
	if cacheMeter == nil {
		return noop
	}

	reg := &managerMetricsRegistration{statsProvider: statsProvider}

	var err error
	reg.activeCaches, err = cacheMeter.Int64ObservableUpDownCounter(metricCacheManagerActiveCaches,
		metric.WithDescription("Current number of connected cache backends"))
	logMetricError(metricCacheManagerActiveCaches, err)
	reg.totalCreated, err = cacheMeter.Int64ObservableCounter(metricCacheManagerTotalCreated,
		metric.WithDescription("Cache backends connected since manager start"))
	logMetricError(metricCacheManagerTotalCreated, err)
	reg.errors, err = cacheMeter.Int64ObservableCounter(metricCacheManagerErrors,
		metric.WithDescription("Cache backend connect and close errors"))
	logMetricError(metricCacheManagerErrors, err)

	var instruments []metric.Observable
	for _, inst := range []metric.Observable{reg.activeCaches, reg.totalCreated, reg.errors} {
		if inst != nil {
			instruments = append(instruments, inst)
		}
	}
	if len(instruments) == 0 {
		return noop
	}

	registration, err := cacheMeter.RegisterCallback(reg.observe, instruments...)
	if err != nil {
		logMetricError("manager_metrics_callback", err)
		return noop
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("manager_metrics_unregister", err)
		}
	}
}

// ResetForTesting drops the cached meter so the next call picks up the
// current global provider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	cacheMeter = nil
	cacheOperationDuration = nil
	cacheHitCounter = nil
	cacheMissCounter = nil
	meterOnce = sync.Once{}
}
