package genesis

import (
	"fmt"
	"sync"
	"time"

	"github.com/storeforge/storeforge/api/schemas"
)

// JobStatus is the lifecycle of one tracked generation job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job can transition no further.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobRecord is the tracked state of one generation job.
type JobRecord struct {
	JobID     string
	RunID     string
	OwnerID   string
	Niche     string
	Status    JobStatus
	Result    *schemas.GenesisResult
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobTracker records job lifecycle transitions. Durable storage is the
// surrounding service's concern; the core only needs somewhere to report.
type JobTracker interface {
	Create(record JobRecord) error
	SetStatus(jobID string, status JobStatus) error
	Finalize(jobID string, result schemas.GenesisResult) error
	Get(jobID string) (JobRecord, bool)
}

// InMemoryJobTracker is the bundled JobTracker for development, tests and
// single-process deployments.
type InMemoryJobTracker struct {
	mu   sync.RWMutex
	jobs map[string]JobRecord
}

var _ JobTracker = (*InMemoryJobTracker)(nil)

// NewInMemoryJobTracker builds an empty tracker.
func NewInMemoryJobTracker() *InMemoryJobTracker {
	return &InMemoryJobTracker{jobs: make(map[string]JobRecord)}
}

// Create implements JobTracker.
func (t *InMemoryJobTracker) Create(record JobRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.jobs[record.JobID]; exists {
		return fmt.Errorf("job %s already exists", record.JobID)
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = JobQueued
	}
	t.jobs[record.JobID] = record
	return nil
}

// SetStatus implements JobTracker; terminal states cannot be exited.
func (t *InMemoryJobTracker) SetStatus(jobID string, status JobStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job %s", jobID)
	}
	if record.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", jobID, record.Status)
	}
	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	t.jobs[jobID] = record
	return nil
}

// Finalize implements JobTracker: it records the aggregate result and moves
// the job to its terminal status exactly once.
func (t *InMemoryJobTracker) Finalize(jobID string, result schemas.GenesisResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job %s", jobID)
	}
	if record.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", jobID, record.Status)
	}
	if result.Success {
		record.Status = JobCompleted
	} else {
		record.Status = JobFailed
	}
	record.Result = &result
	record.UpdatedAt = time.Now().UTC()
	t.jobs[jobID] = record
	return nil
}

// Get implements JobTracker.
func (t *InMemoryJobTracker) Get(jobID string) (JobRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	record, ok := t.jobs[jobID]
	return record, ok
}
