package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// LocalQueue is an in-process Queue used when no broker is configured.
// Jobs are lost on restart.
type LocalQueue struct {
	jobs    chan Job
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLocalQueue(buffer, workers int, logger *slog.Logger) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	return &LocalQueue{
		jobs:    make(chan Job, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Publish enqueues without blocking.
func (q *LocalQueue) Publish(_ context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("publish %s: %w", job.UniqueID, ErrQueueFull)
	}
}

func (q *LocalQueue) Start(ctx context.Context, h Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for range q.workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job := <-q.jobs:
					if err := h(workerCtx, job); err != nil {
						q.logger.Warn("job failed", "unique_id", job.UniqueID, "error", err)
					}
				}
			}
		}()
	}
	return nil
}

// Close stops the workers and waits for in-flight jobs.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	return nil
}
