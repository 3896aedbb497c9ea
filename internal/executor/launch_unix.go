// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package executor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
)

// Launch starts inv detached from the launcher. Executables found on PATH (or
// given by path) run directly with their arguments; URLs and documents are
// handed to the desktop opener.
func (l *ShellLauncher) Launch(ctx context.Context, inv Invocation) error {
	name, args, err := l.command(inv)
	if err != nil {
		return err
	}

	// The child must outlive ctx, so it is not bound to it.
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()

	// Setpgid: new process group so terminal signals to the launcher do not
	// reach the child
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	l.logger.Debug("process started",
		zap.String("target", inv.Target),
		zap.String("program", name),
		zap.Int("pid", cmd.Process.Pid))

	// Fire and forget: the launcher never supervises what it starts.
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("release process", zap.Error(err))
	}
	return nil
}

// command picks the program and arguments for inv.
func (l *ShellLauncher) command(inv Invocation) (string, []string, error) {
	if inv.IsURL() {
		return l.OpenerCommand(), []string{inv.URL()}, nil
	}

	if path, err := exec.LookPath(inv.Target); err == nil {
		return path, inv.Args, nil
	}

	// Not executable: open it with its associated application.
	if _, err := os.Stat(inv.Target); err != nil {
		return "", nil, &fs.PathError{Op: "launch", Path: inv.Target, Err: fs.ErrNotExist}
	}
	// The opener takes a single document, so arguments have nowhere to go.
	if len(inv.Args) > 0 {
		return "", nil, fmt.Errorf("%w: %q for %s", errDocumentArgs, inv.ArgLine(), inv.Target)
	}
	return l.OpenerCommand(), []string{inv.Target}, nil
}
