// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// TASK RUNNER
// =============================================================================

// Handler processes one task and returns a message for the user.
type Handler func(ctx context.Context, task *Task) (string, error)

// Runner executes queued tasks off the caller's goroutine.
type Runner struct {
	queue       *Queue
	handler     Handler
	wg          sync.WaitGroup
	semaphore   chan struct{} // Limits concurrency
	taskTimeout time.Duration // Timeout for each task (0 = no timeout)
	logger      *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency sets the number of tasks that may run at once (default 1).
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.semaphore = make(chan struct{}, n)
		}
	}
}

// WithTaskTimeout bounds each task (0 = no timeout).
func WithTaskTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.taskTimeout = d }
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner that feeds tasks from queue to handler.
func NewRunner(queue *Queue, handler Handler, opts ...RunnerOption) *Runner {
	r := &Runner{
		queue:     queue,
		handler:   handler,
		semaphore: make(chan struct{}, 1),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Run processes tasks until ctx is done, then waits for running tasks to
// return. Running tasks see ctx's cancellation. It always returns nil.
func (r *Runner) Run(ctx context.Context) error {
	defer r.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.queue.Wake():
			if !r.drain(ctx) {
				return nil
			}
		}
	}
}

// drain starts every queued task, blocking while at max concurrency.
// Returns false if ctx ended first.
func (r *Runner) drain(ctx context.Context) bool {
	for {
		select {
		case r.semaphore <- struct{}{}:
		case <-ctx.Done():
			return false
		}

		task := r.queue.claim()
		if task == nil {
			<-r.semaphore
			return true
		}

		r.wg.Add(1)
		go r.execute(ctx, task)
	}
}

// execute runs a claimed task.
func (r *Runner) execute(parent context.Context, task *Task) {
	defer r.wg.Done()
	defer func() { <-r.semaphore }()

	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	if !task.setCancel(cancel) {
		r.queue.finish(task, TaskStatusCanceled, "", context.Canceled)
		return
	}

	r.logger.Debug("task started", zap.String("task", task.ID), zap.String("input", task.Input))

	msg, err := r.call(ctx, task)

	switch {
	case err == nil:
		r.queue.finish(task, TaskStatusComplete, msg, nil)
	case errors.Is(ctx.Err(), context.Canceled):
		r.queue.finish(task, TaskStatusCanceled, msg, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.queue.finish(task, TaskStatusFailed, msg, fmt.Errorf("task timeout after %v: %w", r.taskTimeout, err))
	default:
		r.queue.finish(task, TaskStatusFailed, msg, err)
	}

	r.logger.Debug("task finished",
		zap.String("task", task.ID),
		zap.String("status", task.GetStatus().String()),
		zap.Duration("duration", task.Duration()))
}

// call invokes the handler, converting a panic into an error.
func (r *Runner) call(ctx context.Context, task *Task) (msg string, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("task panicked", zap.String("task", task.ID), zap.Any("panic", p))
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return r.handler(ctx, task)
}
