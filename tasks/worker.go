package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kitsune-sumo/settings/logger"
)

// Worker runs queued tasks delivered by the broker.
type Worker struct {
	registry *Registry
	log      logger.Logger
	tracer   trace.Tracer
}

// NewWorker creates a worker over registry.
func NewWorker(registry *Registry, log logger.Logger, opts ...Option) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{registry: registry, log: log, tracer: applyOptions(opts).tracer()}
}

// Handle decodes one message body and runs its task. The task span is a
// child of the dispatching span when the envelope carries trace context.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("tasks: decode envelope: %w", err)
	}

	h, ok := w.registry.Lookup(env.Task)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, env.Task)
	}

	if len(env.Trace) > 0 {
		ctx = traceContext.Extract(ctx, propagation.MapCarrier(env.Trace))
	}
	ctx, span := w.tracer.Start(ctx, "tasks.run",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task.name", env.Task),
			attribute.String("task.id", env.ID),
		))
	defer span.End()

	if err := h(ctx, env.Payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.log.Error().
			Err(err).
			Str("task", env.Task).
			Str("taskID", env.ID).
			Msg("Task failed")
		return fmt.Errorf("tasks: %q failed: %w", env.Task, err)
	}
	return nil
}
