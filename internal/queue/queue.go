// Package queue provides an in-memory job queue with a worker pool for
// running visit analyses concurrently.
package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// JobStatus represents the state of an analysis job
type JobStatus string

// Job status constants define the lifecycle states
const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Errors returned by the queue
var (
	ErrJobNotFound = errors.New("job not found")
	ErrQueueFull   = errors.New("queue is full")
)

const (
	pendingCapacity  = 100
	defaultListLimit = 50
	maxListLimit     = 500
)

// Valid reports whether s is a known status or empty (no filter)
func (s JobStatus) Valid() bool {
	switch s {
	case "", StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Page clamps pagination parameters: limit defaults to 50 and is capped at 500
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Request selects the pings an analysis job runs over
type Request struct {
	StartDate string
	EndDate   string
	DeviceID  string
}

const dateLayout = "2006-01-02"

// Normalize validates the YYYY-MM-DD dates and defaults EndDate to StartDate
func (r Request) Normalize() (Request, error) {
	if r.StartDate == "" {
		return r, fmt.Errorf("start_date is required")
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return r, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", r.StartDate)
	}

	if r.EndDate == "" {
		r.EndDate = r.StartDate
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return r, fmt.Errorf("invalid end_date %q: want YYYY-MM-DD", r.EndDate)
	}
	if end.Before(start) {
		return r, fmt.Errorf("end_date %s is before start_date %s", r.EndDate, r.StartDate)
	}

	return r, nil
}

// Job represents one analysis run
type Job struct {
	ID string
	Request
	Status       JobStatus
	QueuedAt     time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Result       *JobResult
}

// JobResult contains the output of a completed analysis
type JobResult struct {
	OutputDir        string
	Pings            int
	SkippedPings     int
	Devices          int
	Associations     int
	Visits           int
	ProcessingTimeMS int64
}

// ProcessFunc is a function that processes a job
type ProcessFunc func(ctx context.Context, job *Job) (*JobResult, error)

// Queue manages analysis jobs with a worker pool
type Queue struct {
	mu           sync.RWMutex
	jobs         map[string]*Job
	pendingQueue chan *Job
	workers      int
	processor    ProcessFunc
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewQueue creates a new job queue with the specified number of workers
func NewQueue(workers int, processor ProcessFunc) *Queue {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:         make(map[string]*Job),
		pendingQueue: make(chan *Job, pendingCapacity),
		workers:      workers,
		processor:    processor,
		ctx:          ctx,
		cancel:       cancel,
	}

	// Start worker pool
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	return q
}

// Enqueue adds a new job to the queue and returns its ID
func (q *Queue) Enqueue(req Request) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil {
		return "", fmt.Errorf("queue is shut down")
	}

	job := &Job{
		ID:       uuid.New().String(),
		Request:  req,
		Status:   StatusQueued,
		QueuedAt: time.Now().UTC(),
	}

	// Add to pending queue (non-blocking)
	select {
	case q.pendingQueue <- job:
		q.jobs[job.ID] = job
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// GetJob retrieves a copy of a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, exists := q.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return copyJob(job), nil
}

// copyJob returns a deep copy to prevent external mutation
func copyJob(job *Job) *Job {
	jobCopy := *job
	if job.StartedAt != nil {
		startedCopy := *job.StartedAt
		jobCopy.StartedAt = &startedCopy
	}
	if job.CompletedAt != nil {
		completedCopy := *job.CompletedAt
		jobCopy.CompletedAt = &completedCopy
	}
	if job.Result != nil {
		resultCopy := *job.Result
		jobCopy.Result = &resultCopy
	}
	return &jobCopy
}

// ListJobs returns jobs filtered by status, newest first. The second return
// value is the number of matching jobs before pagination.
func (q *Queue) ListJobs(status JobStatus, limit, offset int) ([]*Job, int) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var filtered []*Job
	for _, job := range q.jobs {
		if status == "" || job.Status == status {
			filtered = append(filtered, copyJob(job))
		}
	}

	slices.SortFunc(filtered, func(a, b *Job) int {
		if c := b.QueuedAt.Compare(a.QueuedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	total := len(filtered)

	// Apply pagination
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		return []*Job{}, total
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return filtered[offset:end], total
}

// GetStats returns queue statistics
func (q *Queue) GetStats() map[string]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := map[string]int{
		"total":      len(q.jobs),
		"queued":     0,
		"processing": 0,
		"completed":  0,
		"failed":     0,
	}

	for _, job := range q.jobs {
		stats[string(job.Status)]++
	}

	return stats
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pendingQueue:
			q.processJob(id, job)
		}
	}
}

// processJob executes a single job
func (q *Queue) processJob(workerID int, job *Job) {
	startTime := time.Now()

	// Update status to processing
	q.mu.Lock()
	job.Status = StatusProcessing
	now := time.Now().UTC()
	job.StartedAt = &now
	snapshot := copyJob(job)
	q.mu.Unlock()

	// Process the job
	result, err := q.processor(q.ctx, snapshot)

	// Update job with result
	q.mu.Lock()
	defer q.mu.Unlock()

	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = StatusFailed
		job.ErrorMessage = err.Error()
		log.Error().Err(err).Str("job_id", job.ID).Int("worker", workerID).Msg("Job failed")
		return
	}

	job.Status = StatusCompleted
	job.Result = result
	if result != nil {
		result.ProcessingTimeMS = time.Since(startTime).Milliseconds()
	}
	log.Info().
		Str("job_id", job.ID).
		Int("worker", workerID).
		Dur("elapsed", time.Since(startTime)).
		Msg("Job completed")
}

// Shutdown gracefully shuts down the queue
func (q *Queue) Shutdown(timeout time.Duration) error {
	// Stop accepting new jobs
	q.mu.Lock()
	q.cancel()
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// Fields renders the job as a JSON-compatible map. Timestamps are RFC 3339
// strings in UTC.
func (j *Job) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"run_id":     j.ID,
		"status":     string(j.Status),
		"start_date": j.StartDate,
		"end_date":   j.EndDate,
		"device_id":  j.DeviceID,
		"queued_at":  j.QueuedAt.Format(time.RFC3339Nano),
	}

	if j.StartedAt != nil {
		fields["started_at"] = j.StartedAt.Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		fields["completed_at"] = j.CompletedAt.Format(time.RFC3339Nano)
	}
	if j.ErrorMessage != "" {
		fields["error_message"] = j.ErrorMessage
	}
	if j.Result != nil {
		fields["result"] = map[string]interface{}{
			"output_dir":         j.Result.OutputDir,
			"pings":              j.Result.Pings,
			"skipped_pings":      j.Result.SkippedPings,
			"devices":            j.Result.Devices,
			"associations":       j.Result.Associations,
			"visits":             j.Result.Visits,
			"processing_time_ms": j.Result.ProcessingTimeMS,
		}
	}

	return fields
}
