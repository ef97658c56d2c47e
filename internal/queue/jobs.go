package queue

import (
	"context"
	"sync"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// RunFunc is the body of a job. It receives the pool's context.
type RunFunc func(ctx context.Context) error

// Job represents one unit of background processing
type Job struct {
	ID          string
	RequestName string
	SourceType  string
	CreatedAt   time.Time

	run RunFunc

	mu         sync.Mutex
	status     string
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// JobStatus is a point-in-time copy of a job's progress
type JobStatus struct {
	ID          string        `json:"id"`
	RequestName string        `json:"request_name"`
	SourceType  string        `json:"source_type"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Elapsed     time.Duration `json:"elapsed"`
}

// NewJob creates a new job with default values
func NewJob(id, requestName, sourceType string, run RunFunc) *Job {
	return &Job{
		ID:          id,
		RequestName: requestName,
		SourceType:  sourceType,
		CreatedAt:   time.Now(),
		run:         run,
		status:      types.StatusQueued,
	}
}

// Status returns the job status constant
func (j *Job) Status() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the error the job failed with, if any
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Snapshot returns a copy of the job's progress
func (j *Job) Snapshot() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := JobStatus{
		ID:          j.ID,
		RequestName: j.RequestName,
		SourceType:  j.SourceType,
		Status:      j.status,
		CreatedAt:   j.CreatedAt,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	switch {
	case !j.finishedAt.IsZero():
		s.Elapsed = j.finishedAt.Sub(j.startedAt)
	case !j.startedAt.IsZero():
		s.Elapsed = time.Since(j.startedAt)
	}
	return s
}

func (j *Job) markStarted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusProcessing
	j.startedAt = time.Now()
}

func (j *Job) markFinished(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = time.Now()
	j.err = err
	// drop the closure so finished jobs do not pin what it captured
	j.run = nil
	if err != nil {
		j.status = types.StatusFailed
		return
	}
	j.status = types.StatusCompleted
}
