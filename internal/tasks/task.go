// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting to be executed
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is currently executing
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the task returned an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the task was canceled
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed || s == TaskStatusCanceled
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is one line of user input waiting for, or undergoing, dispatch.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Input is the raw text submitted by the user
	Input string

	// Status is the current state of the task
	Status TaskStatus

	// SubmittedAt is when the task was created
	SubmittedAt time.Time

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task completed, failed or was canceled
	EndTime time.Time

	// Message is the handler's result text
	Message string

	// Err is the handler's error, if any
	Err error

	// cancel is the context cancel function for this task
	cancel context.CancelFunc

	// mu protects concurrent access to the task
	mu sync.RWMutex
}

// NewTask creates a queued task for input.
func NewTask(input string) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Input:       input,
		Status:      TaskStatusQueued,
		SubmittedAt: time.Now(),
	}
}

// =============================================================================
// TASK METHODS
// =============================================================================

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// markStarted marks the task as running and stores its cancel function.
// Returns false if the task was canceled before it could start.
func (t *Task) markStarted(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != TaskStatusQueued {
		return false
	}
	t.Status = TaskStatusRunning
	t.StartTime = time.Now()
	t.cancel = cancel
	return true
}

// setCancel stores the cancel function of a running task. Returns false if
// the task was canceled in the meantime.
func (t *Task) setCancel(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != TaskStatusRunning {
		return false
	}
	t.cancel = cancel
	return true
}

// finish records the outcome. A task already in a terminal state keeps it.
func (t *Task) finish(status TaskStatus, message string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.IsTerminal() {
		return
	}
	t.Status = status
	t.Message = message
	t.Err = err
	t.EndTime = time.Now()
}

// Cancel cancels the task if it is queued or running.
// Returns true if the task was canceled.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != TaskStatusRunning && t.Status != TaskStatusQueued {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.Status = TaskStatusCanceled
	t.Err = context.Canceled
	t.EndTime = time.Now()
	return true
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// Clone creates a copy of the task for reading.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:          t.ID,
		Input:       t.Input,
		Status:      t.Status,
		SubmittedAt: t.SubmittedAt,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Message:     t.Message,
		Err:         t.Err,
	}
}
