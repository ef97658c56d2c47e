package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// keepFinished is how many finished jobs stay visible through Job and Jobs
const keepFinished = 100

var (
	// ErrQueueFull is returned when the job buffer has no room left.
	ErrQueueFull = errors.New("job queue is full")
	// ErrPoolStopped is returned when enqueueing after Stop.
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// WorkerPool runs queued jobs on a fixed number of workers
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int

	mu       sync.Mutex
	jobs     map[string]*Job
	finished *Queue[string]
	stopped  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, queueSize),
		workerCount: workerCount,
		jobs:        make(map[string]*Job),
		finished:    New[string](),
	}
}

// Start initializes all workers. Jobs receive a context derived from ctx
// that is cancelled by Stop.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// EnqueueJob adds a job to the queue without blocking
func (wp *WorkerPool) EnqueueJob(job *Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobQueue <- job:
	default:
		return ErrQueueFull
	}
	wp.jobs[job.ID] = job
	log.Printf("Job %s enqueued (source: %s, name: %s)", job.ID, job.SourceType, job.RequestName)
	return nil
}

// Job looks up a job by ID
func (wp *WorkerPool) Job(id string) (*Job, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	job, ok := wp.jobs[id]
	return job, ok
}

// Jobs returns the status of queued, running and recently finished jobs,
// oldest first
func (wp *WorkerPool) Jobs() []JobStatus {
	wp.mu.Lock()
	jobs := make([]*Job, 0, len(wp.jobs))
	for _, j := range wp.jobs {
		jobs = append(jobs, j)
	}
	wp.mu.Unlock()

	out := make([]JobStatus, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Pending returns the number of jobs waiting for a worker
func (wp *WorkerPool) Pending() int {
	return len(wp.jobQueue)
}

// Stop refuses new jobs, cancels running ones and waits for workers to exit.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	if wp.cancel != nil {
		wp.cancel()
	}
	wp.wg.Wait()
	log.Println("Worker pool stopped")
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		wp.processJob(id, job)
	}
}

// processJob runs one job with panic recovery
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	job.markStarted()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
					workerID, job.ID, r, string(debug.Stack()))
				err = types.NewError(types.Internal, "worker", fmt.Errorf("worker panic: %v", r))
			}
		}()
		err = job.run(wp.ctx)
	}()

	job.markFinished(err)
	wp.retire(job.ID)
	if err != nil {
		log.Printf("Worker %d: Job %s failed: %v", workerID, job.ID, err)
		return
	}
	log.Printf("Worker %d: Job %s completed successfully", workerID, job.ID)
}

// retire records a finished job and forgets the oldest ones beyond keepFinished
func (wp *WorkerPool) retire(id string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.finished.Enqueue(id)
	for wp.finished.Len() > keepFinished {
		old, _ := wp.finished.Dequeue()
		delete(wp.jobs, old)
	}
}
