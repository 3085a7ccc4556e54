package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJob is returned by RunNow and Stats for an unregistered job ID.
	ErrUnknownJob = errors.New("scheduler: unknown job")
	// ErrJobRunning is returned by RunNow when the job is already executing.
	ErrJobRunning = errors.New("scheduler: job already running")
	// ErrSkippedOnStage is returned by RunNow for a SkipOnStage job while stage is set.
	ErrSkippedOnStage = errors.New("scheduler: job skipped on stage")
	// ErrShuttingDown is returned by RunNow after Shutdown started.
	ErrShuttingDown = errors.New("scheduler: shutting down")
)

// ValidationError represents a validation error during job registration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scheduler: %s %s", e.Field, e.Message)
}

// PanicError wraps a value recovered from a panicking job.
type PanicError struct {
	JobID string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("scheduler: job %q panicked: %v", e.JobID, e.Value)
}
