package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsune-sumo/settings/config"
)

const testJobID = "warm-cache"

// counterJob counts executions
type counterJob struct {
	runs atomic.Int64
}

func (j *counterJob) Run(_ context.Context) error {
	j.runs.Add(1)
	return nil
}

func (j *counterJob) Count() int64 { return j.runs.Load() }

// blockingJob runs until released
type blockingJob struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingJob() *blockingJob {
	return &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (j *blockingJob) Run(ctx context.Context) error {
	j.started <- struct{}{}
	select {
	case <-j.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestScheduler(t *testing.T, stage bool) *Scheduler {
	t.Helper()
	s, err := New(stage, nil, WithShutdownTimeout(2*time.Second))
	require.NoError(t, err)
	return s
}

func TestEveryValidation(t *testing.T) {
	s := newTestScheduler(t, false)
	job := &counterJob{}

	require.NoError(t, s.Every(testJobID, time.Minute, job))

	tests := []struct {
		name     string
		jobID    string
		interval time.Duration
		job      Job
		field    string
	}{
		{"duplicate id", testJobID, time.Minute, job, "jobID"},
		{"empty id", "", time.Minute, job, "jobID"},
		{"zero interval", "other", 0, job, "interval"},
		{"negative interval", "other", -time.Second, job, "interval"},
		{"nil job", "other", time.Minute, nil, "job"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Every(tt.jobID, tt.interval, tt.job)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.Equal(t, []string{testJobID}, s.Jobs())
}

func TestScheduledExecution(t *testing.T) {
	s := newTestScheduler(t, false)
	job := &counterJob{}
	require.NoError(t, s.Every(testJobID, 20*time.Millisecond, job))

	s.Start()
	defer func() { assert.NoError(t, s.Shutdown()) }()

	assert.Eventually(t, func() bool { return job.Count() >= 2 }, 2*time.Second, 10*time.Millisecond)

	stats, err := s.Stats(testJobID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Successes, int64(2))
	assert.Equal(t, StatusSuccess, stats.LastStatus)
	assert.NotNil(t, stats.LastRun)
	assert.Equal(t, 20*time.Millisecond, stats.Interval)
}

func TestSkipOnStage(t *testing.T) {
	t.Run("stage set", func(t *testing.T) {
		s := newTestScheduler(t, true)
		gated := &counterJob{}
		ungated := &counterJob{}
		require.NoError(t, s.Every("gated", time.Hour, gated, SkipOnStage()))
		require.NoError(t, s.Every("ungated", time.Hour, ungated))

		assert.ErrorIs(t, s.RunNow(context.Background(), "gated"), ErrSkippedOnStage)
		assert.NoError(t, s.RunNow(context.Background(), "ungated"))

		assert.Zero(t, gated.Count())
		assert.Equal(t, int64(1), ungated.Count())

		stats, err := s.Stats("gated")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Skipped)
		assert.Zero(t, stats.Runs)
		assert.Nil(t, stats.LastRun)
	})

	t.Run("stage unset", func(t *testing.T) {
		s := newTestScheduler(t, false)
		gated := &counterJob{}
		require.NoError(t, s.Every("gated", time.Hour, gated, SkipOnStage()))

		assert.NoError(t, s.RunNow(context.Background(), "gated"))
		assert.Equal(t, int64(1), gated.Count())
	})
}

func TestTestSettingsClearStage(t *testing.T) {
	cfg, err := config.LoadForTesting(map[string]any{config.KeyStage: true})
	require.NoError(t, err)

	s := newTestScheduler(t, cfg.Stage)
	job := &counterJob{}
	require.NoError(t, s.Every(testJobID, time.Hour, job, SkipOnStage()))

	assert.NoError(t, s.RunNow(context.Background(), testJobID))
	assert.Equal(t, int64(1), job.Count())
}

func TestRunNowFailureAndPanic(t *testing.T) {
	s := newTestScheduler(t, false)
	boom := errors.New("boom")

	require.NoError(t, s.Every("failing", time.Hour, JobFunc(func(context.Context) error { return boom })))
	require.NoError(t, s.Every("panicking", time.Hour, JobFunc(func(context.Context) error { panic("kaboom") })))

	assert.ErrorIs(t, s.RunNow(context.Background(), "failing"), boom)

	err := s.RunNow(context.Background(), "panicking")
	var pErr *PanicError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "panicking", pErr.JobID)
	assert.Equal(t, "kaboom", pErr.Value)

	for _, id := range []string{"failing", "panicking"} {
		stats, err := s.Stats(id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Failures, id)
		assert.Equal(t, StatusFailure, stats.LastStatus, id)
	}

	// a panicking job can run again
	assert.Error(t, s.RunNow(context.Background(), "panicking"))
}

func TestRunNowSkipsOverlappingRun(t *testing.T) {
	s := newTestScheduler(t, false)
	job := newBlockingJob()
	require.NoError(t, s.Every(testJobID, time.Hour, job))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), testJobID) }()
	<-job.started

	assert.ErrorIs(t, s.RunNow(context.Background(), testJobID), ErrJobRunning)

	close(job.release)
	require.NoError(t, <-done)

	stats, err := s.Stats(testJobID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Runs)
	assert.Equal(t, int64(1), stats.Skipped)
}

func TestRunNowUnknownJob(t *testing.T) {
	s := newTestScheduler(t, false)
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrUnknownJob)

	_, err := s.Stats("missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestShutdownCancelsRunningJobs(t *testing.T) {
	s := newTestScheduler(t, false)
	job := newBlockingJob()
	require.NoError(t, s.Every(testJobID, time.Hour, job))
	s.Start()

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), testJobID) }()
	<-job.started

	require.NoError(t, s.Shutdown())
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, s.RunNow(context.Background(), testJobID), ErrShuttingDown)
}

func TestRunNowRacingShutdown(t *testing.T) {
	s := newTestScheduler(t, false)
	require.NoError(t, s.Every(testJobID, time.Hour, JobFunc(func(ctx context.Context) error {
		select {
		case <-time.After(time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})))
	s.Start()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.RunNow(context.Background(), testJobID)
		}()
	}

	require.NoError(t, s.Shutdown())
	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil {
			continue
		}
		assert.True(t,
			errors.Is(err, ErrShuttingDown) || errors.Is(err, ErrJobRunning) || errors.Is(err, context.Canceled),
			"unexpected error: %v", err)
	}
	assert.ErrorIs(t, s.RunNow(context.Background(), testJobID), ErrShuttingDown)
}
