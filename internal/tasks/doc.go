// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs submitted input in the background so front ends never
// block on a launch or a reload.
//
// # Key Types
//
//   - Task: one submitted input with status, timing and result
//   - Queue: arrival-ordered pending tasks, cancellation and notifications
//   - Runner: starts queued tasks with a concurrency limit and optional timeout
//   - TaskNotification: sent on Queue.Notifications when a task finishes
//
// # Usage
//
//	queue := tasks.NewQueue(tasks.WithMaxQueued(16))
//	runner := tasks.NewRunner(queue, func(ctx context.Context, t *tasks.Task) (string, error) {
//	    return orch.Dispatch(ctx, t.Input)
//	}, tasks.WithConcurrency(2))
//	go runner.Run(ctx)
//
//	queue.Add(tasks.NewTask("g golang"))
//	n := <-queue.Notifications()
//	fmt.Println(n.Message, n.Err)
package tasks
