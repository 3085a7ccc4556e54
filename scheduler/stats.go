package scheduler

import (
	"sync"
	"time"
)

// Execution statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Stats is a point-in-time copy of a job's execution counters.
type Stats struct {
	JobID      string        `json:"jobId"`
	Interval   time.Duration `json:"interval"`
	Runs       int64         `json:"runs"`
	Successes  int64         `json:"successes"`
	Failures   int64         `json:"failures"`
	Skipped    int64         `json:"skipped"`
	LastRun    *time.Time    `json:"lastRun,omitempty"`
	LastStatus string        `json:"lastStatus,omitempty"`
}

// jobStats tracks counters for one job.
type jobStats struct {
	mu sync.Mutex
	s  Stats
}

func (m *jobStats) recordSuccess() { m.record(StatusSuccess) }

func (m *jobStats) recordFailure() { m.record(StatusFailure) }

func (m *jobStats) record(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.Runs++
	if status == StatusSuccess {
		m.s.Successes++
	} else {
		m.s.Failures++
	}
	now := time.Now()
	m.s.LastRun = &now
	m.s.LastStatus = status
}

// Skipped triggers don't touch LastRun.
func (m *jobStats) recordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.Skipped++
}

func (m *jobStats) snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.s
	if m.s.LastRun != nil {
		t := *m.s.LastRun
		out.LastRun = &t
	}
	return out
}
