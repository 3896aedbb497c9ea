// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/runbox/internal/commands"
)

// =============================================================================
// EXECUTOR
// =============================================================================

// drivePath matches a Windows drive-letter absolute path such as C:\Tools.
var drivePath = regexp.MustCompile(`^[A-Za-z]:\\`)

// directSchemes are the URL schemes typed input may launch without lookup.
var directSchemes = []string{"http://", "https://", "ftp://"}

// Executor resolves user input to an Invocation and launches it.
type Executor struct {
	registry *commands.Registry
	launcher Launcher
	logger   *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an executor that reads from registry and starts processes
// through launcher.
func New(registry *commands.Registry, launcher Launcher, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		launcher: launcher,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves input and launches the result. Control aliases are
// refused with ErrNotSupported; they belong to the orchestrator.
func (e *Executor) Execute(ctx context.Context, input string) error {
	_, err := e.Run(ctx, input)
	return err
}

// Run is Execute that also returns what was launched.
func (e *Executor) Run(ctx context.Context, input string) (Invocation, error) {
	inv, err := e.Resolve(input)
	if err != nil {
		return Invocation{}, err
	}
	if err := e.launch(ctx, inv); err != nil {
		return inv, err
	}
	return inv, nil
}

// Resolve turns raw input into an Invocation without launching anything.
func (e *Executor) Resolve(input string) (Invocation, error) {
	if strings.TrimSpace(input) == "" {
		return Invocation{}, commands.NewError(commands.ErrInvalidArgument, "execute", "", errEmptyInput)
	}

	head, inputArgs, ok := commands.SplitHead(input)
	if !ok || head == "" {
		return Invocation{}, commands.NewError(commands.ErrInvalidArgument, "execute", input, errEmptyInput)
	}

	if commands.IsControlAlias(head) {
		return Invocation{}, commands.NewError(commands.ErrNotSupported, "execute", head, errControlAlias)
	}

	if IsDirectTarget(head) {
		return Invocation{
			Input:  input,
			Target: head,
			Args:   inputArgs,
			Direct: true,
		}, nil
	}

	cmd, found := e.registry.Get(head)
	if !found {
		return Invocation{}, commands.NewError(commands.ErrNotFound, "execute", head, nil)
	}

	target, targetArgs, ok := commands.SplitHead(cmd.Target)
	if !ok || target == "" {
		return Invocation{}, commands.NewError(commands.ErrInvalidArgument, "execute", cmd.Name, errEmptyTarget)
	}
	if commands.IsControlAlias(target) {
		return Invocation{}, commands.NewError(commands.ErrNotSupported, "execute", target, errControlAlias)
	}

	// Target-embedded args, then configured defaults, then what the user typed.
	args := make([]string, 0, len(targetArgs)+len(inputArgs)+2)
	args = append(args, targetArgs...)
	args = append(args, commands.SplitCommandLine(cmd.Arguments)...)
	args = append(args, inputArgs...)

	return Invocation{
		Input:   input,
		Command: cmd.Name,
		Target:  target,
		Args:    args,
	}, nil
}

// Validate checks a command before registration. It reports targets that
// can never launch; the command itself may still be registered.
func (e *Executor) Validate(cmd commands.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	target, _, ok := commands.SplitHead(cmd.Target)
	if !ok || target == "" {
		return commands.NewError(commands.ErrInvalidArgument, "validate", cmd.Name, errEmptyTarget)
	}
	if commands.IsControlAlias(target) && commands.ParseControl(target) == commands.ControlUnknown {
		return commands.NewError(commands.ErrUnknownCommand, "validate", target, nil)
	}
	return nil
}

// launch calls the launcher, converting failures and panics into
// ErrExecutionFailed naming the target.
func (e *Executor) launch(ctx context.Context, inv Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = commands.NewError(commands.ErrExecutionFailed, "execute", inv.Target, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			e.logger.Warn("launch failed",
				zap.String("command", inv.Command),
				zap.String("target", inv.Target),
				zap.Error(err))
		}
	}()

	e.logger.Info("launching",
		zap.String("command", inv.Command),
		zap.String("target", inv.Target),
		zap.String("args", inv.ArgLine()),
		zap.Bool("direct", inv.Direct))

	if err := e.launcher.Launch(ctx, inv); err != nil {
		return commands.NewError(commands.ErrExecutionFailed, "execute", inv.Target, err)
	}
	return nil
}

// IsDirectTarget reports whether head is launched as-is: a URL with an
// http, https or ftp scheme, a drive-letter path, or an absolute path on
// this system.
func IsDirectTarget(head string) bool {
	lower := strings.ToLower(head)
	for _, scheme := range directSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return drivePath.MatchString(head) || filepath.IsAbs(head)
}

type constError string

func (e constError) Error() string { return string(e) }

const (
	errEmptyInput   constError = "input is empty"
	errEmptyTarget  constError = "command has no target"
	errControlAlias constError = "control commands cannot be launched as processes"
	errDocumentArgs constError = "documents cannot take arguments"
)
