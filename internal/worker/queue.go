package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/observability"
)

// ErrQueueFull is returned when the job buffer has no capacity left. Callers
// treat it as a degraded side effect, not a request failure.
var ErrQueueFull = errors.New("worker queue full")

// Job is a unit of deferred work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue runs side-effect jobs on a fixed pool of goroutines behind a bounded
// buffer. Payment confirmation and ticket sweeps enqueue here so slow mail or
// router calls never block the hot path.
type Queue struct {
	jobs       chan Job
	workers    int
	jobTimeout time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
	wg         sync.WaitGroup
}

// NewQueue creates a queue with the given buffer size and worker count.
func NewQueue(size, workers int, jobTimeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Queue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		jobs:       make(chan Job, size),
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger,
		metrics:    metrics,
	}
}

// Start launches the worker goroutines. The queue drains fully before Start's
// context cancellation takes effect on in-flight jobs.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx)
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.execute(ctx, job)
	}
}

func (q *Queue) execute(ctx context.Context, job Job) {
	jobCtx := ctx
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, q.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("worker job panicked", zap.String("job", job.Name), zap.Any("panic", r))
			q.metrics.RecordSideEffect(job.Name, false)
		}
	}()

	if err := job.Run(jobCtx); err != nil {
		q.logger.Error("worker job failed", zap.String("job", job.Name), zap.Error(err))
		q.metrics.RecordSideEffect(job.Name, false)
		return
	}
	q.metrics.RecordSideEffect(job.Name, true)
}

// Enqueue schedules a job, returning ErrQueueFull when the buffer is at
// capacity.
func (q *Queue) Enqueue(job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes intake and waits for queued jobs to finish.
func (q *Queue) Stop() {
	close(q.jobs)
	q.wg.Wait()
}
