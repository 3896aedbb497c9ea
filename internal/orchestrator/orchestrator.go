// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/executor"
)

// =============================================================================
// STATE
// =============================================================================

// State is the orchestrator's lifecycle state.
type State int

const (
	StateUninitialized State = iota // Before a successful Initialize
	StateReady                      // Commands loaded, reload allowed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// VersionInfo describes the running build for !version.
type VersionInfo struct {
	Name      string
	Version   string
	Commit    string
	BuildDate string
}

// String formats as "<name> <version> (commit <sha>, built <date>)".
func (v VersionInfo) String() string {
	name := v.Name
	if name == "" {
		name = "runbox"
	}
	version := v.Version
	if version == "" {
		version = "dev"
	}
	commit := v.Commit
	if commit == "" {
		commit = "unknown"
	}
	built := v.BuildDate
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("%s %s (commit %s, built %s)", name, version, commit, built)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator sequences configuration loading, reload and control commands,
// and routes everything else to the executor.
type Orchestrator struct {
	// mu serializes Initialize and Reload.
	mu     sync.Mutex
	state  State
	source config.Loader

	registry *commands.Registry
	executor *executor.Executor
	logger   *zap.Logger

	version       VersionInfo
	keepOnFailure bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithVersion sets the build information reported by !version.
func WithVersion(v VersionInfo) Option {
	return func(o *Orchestrator) {
		o.version = v
	}
}

// WithKeepOnFailure selects what a failed reload leaves behind: the previous
// commands (true, the default) or an empty registry (false).
func WithKeepOnFailure(keep bool) Option {
	return func(o *Orchestrator) {
		o.keepOnFailure = keep
	}
}

// New creates an orchestrator over registry and exec.
func New(registry *commands.Registry, exec *executor.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		executor:      exec,
		logger:        zap.NewNop(),
		keepOnFailure: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Registry returns the registry the orchestrator populates.
func (o *Orchestrator) Registry() *commands.Registry {
	return o.registry
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Initialize loads commands from source and installs them. On failure the
// registry is untouched and the state does not change. Calling it again
// re-initializes from the new source.
func (o *Orchestrator) Initialize(ctx context.Context, source config.Loader) error {
	if source == nil {
		return commands.NewError(commands.ErrInitializationFailed, "initialize", "",
			commands.NewError(commands.ErrInvalidArgument, "initialize", "source", nil))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initializeLocked(ctx, source)
}

func (o *Orchestrator) initializeLocked(ctx context.Context, source config.Loader) error {
	cmds, err := o.load(ctx, source)
	if err == nil {
		err = o.registry.Replace(cmds)
	}
	if err != nil {
		o.logger.Error("initialization failed", zap.Error(err))
		return commands.NewError(commands.ErrInitializationFailed, "initialize", "", err)
	}

	o.source = source
	o.state = StateReady
	o.logger.Info("commands loaded", zap.Int("commands", o.registry.Len()))
	return nil
}

// Reload re-reads the source given to Initialize. The new set is staged and
// swapped in only when it loads completely.
func (o *Orchestrator) Reload(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reloadLocked(ctx)
}

// Refresh reloads when initialized and initializes from source otherwise.
// The state check and the load happen under one lock, so concurrent callers
// never both initialize.
func (o *Orchestrator) Refresh(ctx context.Context, source config.Loader) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateReady {
		return o.reloadLocked(ctx)
	}
	if source == nil {
		return commands.NewError(commands.ErrInitializationFailed, "initialize", "",
			commands.NewError(commands.ErrInvalidArgument, "initialize", "source", nil))
	}
	return o.initializeLocked(ctx, source)
}

func (o *Orchestrator) reloadLocked(ctx context.Context) error {
	if o.state != StateReady {
		return commands.NewError(commands.ErrInvalidOperation, "reload", "", errNotInitialized)
	}

	cmds, err := o.load(ctx, o.source)
	if err == nil {
		err = o.registry.Replace(cmds)
	}
	if err != nil {
		if o.keepOnFailure {
			o.logger.Warn("reload failed, keeping previous commands",
				zap.Int("commands", o.registry.Len()),
				zap.Error(err))
		} else {
			o.registry.Clear()
			o.logger.Warn("reload failed, registry cleared", zap.Error(err))
		}
		return commands.NewError(commands.ErrReloadFailed, "reload", "", err)
	}

	o.logger.Info("commands reloaded", zap.Int("commands", o.registry.Len()))
	return nil
}

// load reads entries from source and converts them to commands. Targets that
// can never launch are logged, not rejected.
func (o *Orchestrator) load(ctx context.Context, source config.Loader) ([]commands.Command, error) {
	entries, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	cmds := make([]commands.Command, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		cmd := commands.Command{
			Name:        strings.TrimSpace(entry.Name),
			Target:      strings.TrimSpace(entry.Target),
			Description: entry.Description,
			Arguments:   entry.Arguments,
		}

		k := commands.Key(cmd.Name)
		if _, dup := seen[k]; dup {
			o.logger.Debug("duplicate command replaces earlier entry", zap.String("command", cmd.Name))
		}
		seen[k] = struct{}{}

		if err := o.executor.Validate(cmd); err != nil {
			o.logger.Warn("command will not launch",
				zap.String("command", cmd.Name),
				zap.String("target", cmd.Target),
				zap.Error(err))
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// HandleSpecial runs a control command and returns a message for the user.
// !exit returns commands.ErrExitRequested, which callers treat as a request
// to shut down rather than a failure.
func (o *Orchestrator) HandleSpecial(ctx context.Context, token string) (string, error) {
	switch control := commands.ParseControl(token); control {
	case commands.ControlReload:
		if err := o.Reload(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("Configuration reloaded (%d commands)", o.registry.Len()), nil

	case commands.ControlVersion:
		return o.version.String(), nil

	case commands.ControlExit:
		o.logger.Debug("exit requested")
		return "", commands.ErrExitRequested

	case commands.ControlUnknown:
		head, _, _ := commands.SplitHead(token)
		return "", commands.NewError(commands.ErrUnknownCommand, "special", head, nil)

	default:
		return "", commands.NewError(commands.ErrInvalidArgument, "special", strings.TrimSpace(token), errNotControl)
	}
}

// Dispatch is the single entry point for user input. Control tokens and
// commands aliased to them are handled here; everything else is launched.
func (o *Orchestrator) Dispatch(ctx context.Context, input string) (string, error) {
	if commands.ParseControl(input) != commands.ControlNone {
		return o.HandleSpecial(ctx, input)
	}

	if head, _, ok := commands.SplitHead(input); ok {
		if cmd, found := o.registry.Get(head); found && cmd.IsControl() {
			o.logger.Debug("control alias",
				zap.String("command", cmd.Name),
				zap.String("target", cmd.Target))
			return o.HandleSpecial(ctx, cmd.Target)
		}
	}

	inv, err := o.executor.Run(ctx, input)
	if err != nil {
		return "", err
	}
	return "Launched " + inv.Target, nil
}

type constError string

func (e constError) Error() string { return string(e) }

const (
	errNotInitialized constError = "not initialized"
	errNotControl     constError = "not a control command"
)
