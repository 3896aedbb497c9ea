// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// Launch hands inv to ShellExecute with the "open" verb, so URLs, documents
// and executables all go through their registered handlers.
func (l *ShellLauncher) Launch(ctx context.Context, inv Invocation) error {
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return err
	}
	if inv.IsURL() {
		return l.shellExecute(verb, inv.URL(), "")
	}
	return l.shellExecute(verb, inv.Target, inv.ArgLine())
}

func (l *ShellLauncher) shellExecute(verb *uint16, target, argLine string) error {
	file, err := windows.UTF16PtrFromString(target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", target, err)
	}

	var args *uint16
	if argLine != "" {
		args, err = windows.UTF16PtrFromString(argLine)
		if err != nil {
			return fmt.Errorf("invalid arguments %q: %w", argLine, err)
		}
	}

	if err := windows.ShellExecute(0, verb, file, args, nil, windows.SW_SHOWNORMAL); err != nil {
		return fmt.Errorf("ShellExecute %s: %w", target, err)
	}

	l.logger.Debug("shell execute",
		zap.String("target", target),
		zap.String("args", argLine))
	return nil
}
