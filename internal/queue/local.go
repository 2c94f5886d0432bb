package queue

import (
	"context"
	"sync"
	"time"

	"github.com/dimitrije/taskhub-api/pkg/logger"
)

const jobTimeout = 30 * time.Second

// LocalQueue runs jobs on a fixed pool of goroutines fed by a bounded channel.
type LocalQueue struct {
	jobs    chan FanOutJob
	handler Handler
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewLocalQueue(workers, size int, handler Handler) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}

	q := &LocalQueue{
		jobs:    make(chan FanOutJob, size),
		handler: handler,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

func (q *LocalQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(job)
	}
}

func (q *LocalQueue) process(job FanOutJob) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("project_id", job.ProjectID.String()).Msg("fan-out job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := q.handler(ctx, job); err != nil {
		logger.Error().Err(err).
			Str("project_id", job.ProjectID.String()).
			Str("action", string(job.Action)).
			Msg("fan-out job failed")
	}
}

// Enqueue never blocks. It fails with ErrQueueFull when every slot is taken.
func (q *LocalQueue) Enqueue(_ context.Context, job FanOutJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *LocalQueue) IsAsync() bool {
	return false
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
