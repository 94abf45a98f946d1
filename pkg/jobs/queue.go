package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	// MaxRetries defaults to 3 unless DisableRetry is set.
	MaxRetries   int
	DisableRetry bool
	RetryDelay   time.Duration
	// JobTimeout bounds each handler invocation when positive.
	JobTimeout time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines. Jobs are held in memory only.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue; call Start before Enqueue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.DisableRetry {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers and waits for them to exit. Buffered jobs are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue pushes a job without blocking; a full buffer is an error.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue %s full", q.name)
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.run(job); err != nil {
				q.handleFailure(job, err)
			}
		}
	}
}

func (q *Queue) run(job Job) error {
	ctx := q.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	return q.handler(ctx, job)
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt > q.cfg.MaxRetries {
		if q.cfg.DisableRetry {
			q.logger.Warn("job failed", fields...)
		} else {
			q.logger.Error("job exceeded retries", fields...)
		}
		return
	}
	q.logger.Warn("job failed, retrying", fields...)

	go func(j Job) {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
