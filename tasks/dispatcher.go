package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kitsune-sumo/settings/config"
	"github.com/kitsune-sumo/settings/logger"
	"github.com/kitsune-sumo/settings/messaging"
)

const tracerName = "github.com/kitsune-sumo/settings/tasks"

// Envelope is the wire format of a queued task. Trace carries the W3C
// trace context of the dispatching span.
type Envelope struct {
	ID      string            `json:"id"`
	Task    string            `json:"task"`
	Payload json.RawMessage   `json:"payload"`
	SentAt  time.Time         `json:"sent_at"`
	Trace   map[string]string `json:"trace,omitempty"`
}

var traceContext = propagation.TraceContext{}

// Result describes a dispatched task.
type Result struct {
	ID    string
	Task  string
	Eager bool
}

// Dispatcher sends tasks to their handlers.
type Dispatcher struct {
	registry  *Registry
	publisher messaging.Publisher
	queue     string
	eager     bool
	log       logger.Logger
	tracer    trace.Tracer
}

type options struct {
	tracerProvider trace.TracerProvider
}

func (o options) tracer() trace.Tracer {
	if o.tracerProvider == nil {
		return otel.Tracer(tracerName)
	}
	return o.tracerProvider.Tracer(tracerName)
}

// Option configures a Dispatcher or Worker.
type Option func(*options)

// WithTracerProvider sets the tracer provider used for task spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDispatcher creates a dispatcher. publisher may be nil when
// cfg.AlwaysEager is set.
func NewDispatcher(cfg config.TasksConfig, registry *Registry, publisher messaging.Publisher, log logger.Logger, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("tasks: registry is required")
	}
	if !cfg.AlwaysEager {
		if publisher == nil {
			return nil, fmt.Errorf("tasks: publisher is required when %s is false: %w", config.KeyTasksAlwaysEager, config.ErrNotConfigured)
		}
		if cfg.Queue == "" {
			return nil, config.NewMissingFieldError(config.KeyTasksQueue)
		}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Dispatcher{
		registry:  registry,
		publisher: publisher,
		queue:     cfg.Queue,
		eager:     cfg.AlwaysEager,
		log:       log,
		tracer:    applyOptions(opts).tracer(),
	}, nil
}

// Eager reports whether tasks run in the caller's goroutine.
func (d *Dispatcher) Eager() bool {
	return d.eager
}

// Delay dispatches task name with payload. In eager mode the handler runs
// before Delay returns and its error is returned; otherwise the task is
// published to the queue and Delay returns once the broker accepted it.
func (d *Dispatcher) Delay(ctx context.Context, name string, payload any) (*Result, error) {
	h, ok := d.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode payload for %q: %w", name, err)
	}

	res := &Result{ID: uuid.NewString(), Task: name, Eager: d.eager}

	ctx, span := d.tracer.Start(ctx, "tasks.delay",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("task.name", name),
			attribute.String("task.id", res.ID),
			attribute.Bool("task.eager", d.eager),
		))
	defer span.End()

	if d.eager {
		err = d.runEager(ctx, h, res, body)
	} else {
		err = d.publish(ctx, res, body)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (d *Dispatcher) runEager(ctx context.Context, h Handler, res *Result, body []byte) error {
	start := time.Now()
	if err := h(ctx, body); err != nil {
		d.log.Error().
			Err(err).
			Str("task", res.Task).
			Str("taskID", res.ID).
			Msg("Eager task failed")
		return fmt.Errorf("tasks: %q failed: %w", res.Task, err)
	}

	d.log.Debug().
		Str("task", res.Task).
		Str("taskID", res.ID).
		Dur("duration", time.Since(start)).
		Msg("Eager task completed")
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, res *Result, body []byte) error {
	now := time.Now().UTC()
	carrier := propagation.MapCarrier{}
	traceContext.Inject(ctx, carrier)

	env, err := json.Marshal(Envelope{ID: res.ID, Task: res.Task, Payload: body, SentAt: now, Trace: carrier})
	if err != nil {
		return fmt.Errorf("tasks: encode envelope for %q: %w", res.Task, err)
	}

	err = d.publisher.Publish(ctx, d.queue, messaging.Message{
		ID:        res.ID,
		Body:      env,
		Headers:   map[string]any{"task": res.Task},
		Timestamp: now,
	})
	if err != nil {
		return fmt.Errorf("tasks: enqueue %q: %w", res.Task, err)
	}

	d.log.Debug().
		Str("task", res.Task).
		Str("taskID", res.ID).
		Str("queue", d.queue).
		Msg("Task queued")
	return nil
}
