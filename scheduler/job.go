package scheduler

import "context"

// Job is a unit of periodic work. The scheduler never runs two executions
// of the same job at once, but different jobs run concurrently.
//
// Example:
//
//	type WarmCacheJob struct{ cache cache.Cache }
//
//	func (j *WarmCacheJob) Run(ctx context.Context) error {
//	    return j.cache.Set(ctx, "front-page", payload, time.Hour)
//	}
type Job interface {
	// Run performs the work. Returning an error or panicking marks the
	// execution as failed. ctx is cancelled on Shutdown.
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run implements Job
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Trigger types recorded in logs.
const (
	triggerScheduled = "scheduled"
	triggerManual    = "manual"
)

type jobOptions struct {
	skipOnStage bool
}

// JobOption configures a single registered job.
type JobOption func(*jobOptions)

// SkipOnStage prevents the job from running while the stage setting is
// true. Skipped triggers are logged and counted.
func SkipOnStage() JobOption {
	return func(o *jobOptions) {
		o.skipOnStage = true
	}
}
