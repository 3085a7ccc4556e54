// Package scheduler runs periodic jobs on gocron. Jobs registered with
// SkipOnStage do not run while the stage setting is true.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.opentelemetry.io/otel/metric"

	"github.com/kitsune-sumo/settings/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// jobEntry is a registered job with its execution lock and counters.
type jobEntry struct {
	id       string
	job      Job
	interval time.Duration
	opts     jobOptions
	stats    *jobStats

	// mu guards running; overlapping triggers of the same job are skipped
	mu      sync.Mutex
	running bool
}

// tryLock returns false if the job is already running.
func (e *jobEntry) tryLock() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return false
	}

	e.running = true
	return true
}

func (e *jobEntry) unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithShutdownTimeout bounds how long Shutdown waits for in-flight jobs.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithMeterProvider sets the provider for execution metrics. Defaults to
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Scheduler) {
		s.meterProvider = mp
	}
}

// Scheduler runs registered jobs at fixed intervals.
type Scheduler struct {
	log             logger.Logger
	stage           bool
	shutdownTimeout time.Duration
	meterProvider   metric.MeterProvider
	metrics         *jobMetrics

	cron gocron.Scheduler
	jobs map[string]*jobEntry
	mu   sync.RWMutex

	// runMu orders wg.Add against shutdownCancel, so no trigger is
	// admitted once Shutdown has started waiting.
	runMu          sync.Mutex
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	wg             sync.WaitGroup
}

// New creates a scheduler. stage is the value of the stage setting.
func New(stage bool, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}

	s := &Scheduler{
		log:             log,
		stage:           stage,
		shutdownTimeout: defaultShutdownTimeout,
		jobs:            make(map[string]*jobEntry),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics, err := newJobMetrics(s.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("scheduler: failed to create metrics: %w", err)
	}
	s.metrics = metrics

	// Nothing that needs releasing is created before this point.
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: failed to create gocron scheduler: %w", err)
	}
	s.cron = cron
	s.shutdownCtx, s.shutdownCancel = context.WithCancel(context.Background())
	return s, nil
}

// Every registers job to run every interval once the scheduler is started.
func (s *Scheduler) Every(jobID string, interval time.Duration, job Job, opts ...JobOption) error {
	if jobID == "" {
		return &ValidationError{Field: "jobID", Message: "is required"}
	}
	if interval <= 0 {
		return &ValidationError{
			Field:   "interval",
			Message: "must be positive. Choose a duration greater than 0.",
		}
	}
	if job == nil {
		return &ValidationError{Field: "job", Message: "is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; exists {
		return &ValidationError{
			Field:   "jobID",
			Message: fmt.Sprintf("'%s' already registered. Choose a unique identifier.", jobID),
		}
	}

	entry := &jobEntry{
		id:       jobID,
		job:      job,
		interval: interval,
		stats:    &jobStats{s: Stats{JobID: jobID, Interval: interval}},
	}
	for _, opt := range opts {
		opt(&entry.opts)
	}

	if _, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { _ = s.trigger(s.shutdownCtx, entry, triggerScheduled) }),
		gocron.WithName(jobID),
	); err != nil {
		return fmt.Errorf("scheduler: failed to schedule job '%s': %w", jobID, err)
	}

	s.jobs[jobID] = entry

	s.log.Info().
		Str("jobID", jobID).
		Dur("interval", interval).
		Bool("skipOnStage", entry.opts.skipOnStage).
		Msg("Job registered successfully")
	return nil
}

// Start begins firing scheduled triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.Jobs())).Bool("stage", s.stage).Msg("Scheduler started")
}

// Jobs returns the registered job IDs in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.jobs))
}

// Stats returns the counters for jobID.
func (s *Scheduler) Stats(jobID string) (Stats, error) {
	entry, err := s.lookup(jobID)
	if err != nil {
		return Stats{}, err
	}
	return entry.stats.snapshot(), nil
}

// RunNow executes jobID synchronously, outside its schedule, with the
// same stage and overlap rules as scheduled triggers. It returns the
// job's error, a *PanicError, or one of the skip sentinels.
func (s *Scheduler) RunNow(ctx context.Context, jobID string) error {
	entry, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	if s.shutdownCtx.Err() != nil {
		return ErrShuttingDown
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.shutdownCtx, cancel)
	defer stop()

	return s.trigger(ctx, entry, triggerManual)
}

// Shutdown stops triggering jobs, cancels running ones and waits for
// them up to the shutdown timeout.
func (s *Scheduler) Shutdown() error {
	s.log.Info().Msg("Initiating graceful scheduler shutdown")

	s.runMu.Lock()
	s.shutdownCancel()
	s.runMu.Unlock()

	if err := s.cron.Shutdown(); err != nil {
		s.log.Error().Err(err).Msg("Error stopping scheduler")
		return fmt.Errorf("scheduler: shutdown failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("All in-flight jobs completed successfully")
		return nil
	case <-time.After(s.shutdownTimeout):
		s.log.Warn().
			Dur("timeout", s.shutdownTimeout).
			Msg("Shutdown timeout reached, some jobs may not have completed")
		return fmt.Errorf("scheduler: shutdown timeout after %v", s.shutdownTimeout)
	}
}

func (s *Scheduler) lookup(jobID string) (*jobEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, jobID)
	}
	return entry, nil
}

// admit registers a trigger with the shutdown wait group. It returns false
// once Shutdown has begun.
func (s *Scheduler) admit() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.shutdownCtx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scheduler) trigger(ctx context.Context, entry *jobEntry, triggerType string) error {
	if !s.admit() {
		s.log.Warn().
			Str("jobID", entry.id).
			Msg("Job trigger skipped - scheduler is shutting down")
		return ErrShuttingDown
	}
	defer s.wg.Done()

	if entry.opts.skipOnStage && s.stage {
		s.log.Info().
			Str("jobID", entry.id).
			Str("triggerType", triggerType).
			Msg("Job trigger skipped - stage is set")
		entry.stats.recordSkipped()
		s.metrics.record(entry.id, triggerType, StatusSkipped, 0)
		return ErrSkippedOnStage
	}

	if !entry.tryLock() {
		s.log.Warn().
			Str("jobID", entry.id).
			Str("triggerType", triggerType).
			Msg("Job trigger skipped - job is already running")
		entry.stats.recordSkipped()
		s.metrics.record(entry.id, triggerType, StatusSkipped, 0)
		return ErrJobRunning
	}

	defer entry.unlock()

	return s.execute(ctx, entry, triggerType)
}

func (s *Scheduler) execute(ctx context.Context, entry *jobEntry, triggerType string) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("jobID", entry.id).
				Interface("panic", r).
				Msg("Job panicked - recovered and marked as failed")
			entry.stats.recordFailure()
			s.metrics.record(entry.id, triggerType, StatusFailure, time.Since(start))
			err = &PanicError{JobID: entry.id, Value: r}
		}
	}()

	err = entry.job.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		s.log.Error().
			Err(err).
			Str("jobID", entry.id).
			Str("triggerType", triggerType).
			Dur("duration", duration).
			Msg("Job execution failed")
		entry.stats.recordFailure()
		s.metrics.record(entry.id, triggerType, StatusFailure, duration)
		return err
	}

	s.log.Info().
		Str("jobID", entry.id).
		Str("triggerType", triggerType).
		Dur("duration", duration).
		Msg("Job execution completed successfully")
	entry.stats.recordSuccess()
	s.metrics.record(entry.id, triggerType, StatusSuccess, duration)
	return nil
}
