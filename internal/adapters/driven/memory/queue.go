package memory

import (
	"context"
	"sync"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*TaskQueue)(nil)

// TaskQueue is an in-process task queue backed by a buffered channel.
// Tasks survive nack/retry cycles but not process restarts.
type TaskQueue struct {
	mu      sync.Mutex
	tasks   map[string]*domain.Task
	pending chan string
	closed  bool
}

// NewTaskQueue creates an in-memory task queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks:   make(map[string]*domain.Task),
		pending: make(chan string, 1024),
	}
}

func (q *TaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	stored := *task
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return domain.ErrServiceUnavailable
	}
	q.tasks[task.ID] = &stored
	q.mu.Unlock()

	select {
	case q.pending <- task.ID:
		return nil
	default:
		return domain.ErrServiceUnavailable
	}
}

func (q *TaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	timer := time.NewTimer(time.Duration(timeout) * time.Second)
	defer timer.Stop()

	for {
		select {
		case taskID := <-q.pending:
			q.mu.Lock()
			task, ok := q.tasks[taskID]
			if !ok {
				q.mu.Unlock()
				continue
			}
			task.MarkProcessing()
			copied := *task
			q.mu.Unlock()
			return &copied, nil
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, nil
		}
	}
}

func (q *TaskQueue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	task.MarkCompleted()
	return nil
}

func (q *TaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	q.mu.Lock()
	task, ok := q.tasks[taskID]
	if !ok {
		q.mu.Unlock()
		return domain.ErrNotFound
	}

	if !task.CanRetry() {
		task.MarkFailed(reason)
		q.mu.Unlock()
		return nil
	}
	task.Retry(reason)
	q.mu.Unlock()

	select {
	case q.pending <- taskID:
		return nil
	default:
		return domain.ErrServiceUnavailable
	}
}

func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (q *TaskQueue) Ping(ctx context.Context) error {
	return nil
}

func (q *TaskQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}
