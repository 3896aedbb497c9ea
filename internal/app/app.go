// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the runbox components together and runs them alongside
// a front end.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/executor"
	"github.com/jeranaias/runbox/internal/orchestrator"
	"github.com/jeranaias/runbox/internal/tasks"
	"github.com/jeranaias/runbox/internal/watch"
)

// =============================================================================
// APP
// =============================================================================

// Options configure New. Zero values select the production defaults.
type Options struct {
	// Config is the loaded settings. Nil means config.Default().
	Config *config.Config

	// Logger receives all component logs. Nil disables logging.
	Logger *zap.Logger

	// Launcher starts processes. Nil means an executor.ShellLauncher.
	Launcher executor.Launcher

	// Loader supplies commands. Nil means the YAML file from Config.
	Loader config.Loader

	// Version is reported by !version.
	Version orchestrator.VersionInfo
}

// App holds the wired components.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	loader config.Loader

	registry *commands.Registry
	executor *executor.Executor
	orch     *orchestrator.Orchestrator
	queue    *tasks.Queue
	runner   *tasks.Runner
}

// New builds the component graph. Nothing is loaded or started yet.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = executor.NewShellLauncher(cfg.Launcher.Opener, logger.Named("launcher"))
	}
	loader := opts.Loader
	if loader == nil {
		loader = config.NewCommandFile(cfg.CommandsFile)
	}

	registry := commands.NewRegistry()
	exec := executor.New(registry, launcher, executor.WithLogger(logger.Named("executor")))
	orch := orchestrator.New(registry, exec,
		orchestrator.WithLogger(logger.Named("orchestrator")),
		orchestrator.WithVersion(opts.Version),
		orchestrator.WithKeepOnFailure(cfg.Reload.KeepOnFailure))

	queue := tasks.NewQueue(
		tasks.WithMaxQueued(cfg.Launcher.MaxQueued),
		tasks.WithQueueLogger(logger.Named("tasks")))
	a := &App{
		cfg:      cfg,
		logger:   logger,
		loader:   loader,
		registry: registry,
		executor: exec,
		orch:     orch,
		queue:    queue,
	}
	a.runner = tasks.NewRunner(queue, a.handle,
		tasks.WithConcurrency(cfg.Launcher.Workers),
		tasks.WithTaskTimeout(cfg.TaskTimeout()),
		tasks.WithRunnerLogger(logger.Named("runner")))
	return a
}

// Initialize loads the commands.
func (a *App) Initialize(ctx context.Context) error {
	return a.orch.Initialize(ctx, a.loader)
}

// Registry returns the command registry.
func (a *App) Registry() *commands.Registry { return a.registry }

// Completer returns the completer mirroring the registry.
func (a *App) Completer() *commands.Completer { return a.registry.Completer() }

// Orchestrator returns the orchestrator.
func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Config returns the settings in use.
func (a *App) Config() *config.Config { return a.cfg }

// Dispatch handles input synchronously on the caller's goroutine.
func (a *App) Dispatch(ctx context.Context, input string) (string, error) {
	return a.orch.Dispatch(ctx, input)
}

// Submit queues input for the background runner and returns the task ID.
// The outcome arrives on Notifications.
func (a *App) Submit(input string) (string, error) {
	task := tasks.NewTask(input)
	if err := a.queue.Add(task); err != nil {
		return "", err
	}
	return task.ID, nil
}

// Cancel stops a submitted task that has not finished. The task's
// notification reports it as canceled.
func (a *App) Cancel(id string) bool {
	return a.queue.Cancel(id)
}

// Notifications delivers the outcome of every submitted task.
func (a *App) Notifications() <-chan tasks.TaskNotification {
	return a.queue.Notifications()
}

func (a *App) handle(ctx context.Context, task *tasks.Task) (string, error) {
	return a.orch.Dispatch(ctx, task.Input)
}

// =============================================================================
// RUN
// =============================================================================

// Front is a user interface run by App.Run. It returns when the user quits.
type Front func(ctx context.Context) error

// Run starts the task runner and, when enabled, the file watcher, then runs
// front. When front returns everything else is stopped. An exit request from
// front is not an error.
func (a *App) Run(ctx context.Context, front Front) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return a.runner.Run(gctx)
	})

	if w := a.startWatcher(); w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		err := front(gctx)
		if commands.IsExit(err) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("runbox: %w", err)
	}
	return nil
}

// startWatcher returns a watcher on the commands file, or nil when watching
// is disabled or the loader is not file based.
func (a *App) startWatcher() *watch.Watcher {
	if !a.cfg.Reload.Watch {
		return nil
	}
	file, ok := a.loader.(*config.CommandFile)
	if !ok {
		return nil
	}

	w, err := watch.New(file.Path, a.reloadFromWatch,
		watch.WithDebounce(a.cfg.Debounce()),
		watch.WithMinInterval(a.cfg.MinReloadInterval()),
		watch.WithLogger(a.logger.Named("watch")))
	if err != nil {
		a.logger.Warn("file watching disabled", zap.String("path", file.Path), zap.Error(err))
		return nil
	}
	return w
}

func (a *App) reloadFromWatch(ctx context.Context) error {
	return a.orch.Refresh(ctx, a.loader)
}
