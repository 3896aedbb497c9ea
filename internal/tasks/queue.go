// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue holds submitted tasks in arrival order until they start, and the
// running tasks until they finish. Finished tasks are reported on
// Notifications and then dropped.
type Queue struct {
	// pending holds queued tasks, oldest first
	pending []*Task

	// running tracks currently running tasks by ID
	running map[string]*Task

	// maxQueued is the maximum number of queued tasks allowed (0 = unlimited)
	maxQueued int

	// mu protects concurrent access to the queue
	mu sync.Mutex

	// notifyChan sends notifications when tasks finish
	notifyChan chan TaskNotification

	// wake is signaled whenever a task is added
	wake chan struct{}

	logger *zap.Logger
}

// TaskNotification reports a finished task.
type TaskNotification struct {
	TaskID   string
	Input    string
	Status   TaskStatus
	Message  string
	Err      error
	Duration time.Duration
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithMaxQueued limits the number of queued tasks (0 = unlimited).
func WithMaxQueued(n int) QueueOption {
	return func(q *Queue) { q.maxQueued = n }
}

// WithQueueLogger sets the logger used for dropped notifications.
func WithQueueLogger(logger *zap.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQueue creates a new task queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		running:    make(map[string]*Task),
		notifyChan: make(chan TaskNotification, 100),
		wake:       make(chan struct{}, 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// =============================================================================
// TASK MANAGEMENT
// =============================================================================

// Add appends a task to the queue and wakes the runner.
// Returns an error if the queue has reached its maximum size.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxQueued > 0 && len(q.pending) >= q.maxQueued {
		return fmt.Errorf("queue is full: %d queued tasks (max: %d)", len(q.pending), q.maxQueued)
	}

	q.pending = append(q.pending, task)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Cancel cancels a queued or running task by ID.
// Returns true if the task was canceled. A queued task is reported as
// canceled right away; a running one when its handler returns.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task, ok := q.running[id]; ok {
		return task.Cancel()
	}
	for i, task := range q.pending {
		if task.ID != id {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		if !task.Cancel() {
			return false
		}
		q.notify(TaskNotification{
			TaskID: task.ID,
			Input:  task.Input,
			Status: TaskStatusCanceled,
			Err:    context.Canceled,
		})
		return true
	}
	return false
}

// Wake returns a channel that receives after tasks are added.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// claim returns the oldest queued task, already marked running, or nil.
func (q *Queue) claim() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) > 0 {
		task := q.pending[0]
		q.pending = q.pending[1:]
		if task.markStarted(nil) {
			q.running[task.ID] = task
			return task
		}
	}
	return nil
}

// finish records a task's outcome and notifies listeners.
func (q *Queue) finish(task *Task, status TaskStatus, message string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.finish(status, message, err)
	delete(q.running, task.ID)

	final := task.Clone()
	q.notify(TaskNotification{
		TaskID:   final.ID,
		Input:    final.Input,
		Status:   final.Status,
		Message:  final.Message,
		Err:      final.Err,
		Duration: task.Duration(),
	})
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel.
func (q *Queue) Notifications() <-chan TaskNotification {
	return q.notifyChan
}

// notify sends a notification (must be called with lock held).
func (q *Queue) notify(notification TaskNotification) {
	select {
	case q.notifyChan <- notification:
	default:
		q.logger.Warn("notification channel full, dropped notification",
			zap.String("task", notification.TaskID),
			zap.String("status", notification.Status.String()))
	}
}
