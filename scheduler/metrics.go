package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/kitsune-sumo/settings/scheduler"

	metricJobExecutions = "scheduler.job.executions" // Counter
	metricJobDuration   = "scheduler.job.duration"   // Histogram in seconds

	attrJobID   = "job.id"
	attrStatus  = "job.status"
	attrTrigger = "job.trigger"
)

// jobMetrics records execution outcomes. A nil receiver records nothing.
type jobMetrics struct {
	executions metric.Int64Counter
	duration   metric.Float64Histogram
}

func newJobMetrics(mp metric.MeterProvider) (*jobMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	executions, err := meter.Int64Counter(
		metricJobExecutions,
		metric.WithDescription("Job triggers by outcome"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		metricJobDuration,
		metric.WithDescription("Duration of job executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &jobMetrics{executions: executions, duration: duration}, nil
}

func (m *jobMetrics) record(jobID, trigger, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrJobID, jobID),
		attribute.String(attrTrigger, trigger),
		attribute.String(attrStatus, status),
	)
	ctx := context.Background()
	m.executions.Add(ctx, 1, attrs)
	if status != StatusSkipped {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
