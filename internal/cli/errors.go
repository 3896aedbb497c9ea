// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for the runbox CLI.
//
// Commands always return errors; Execute displays them once and maps them
// to an exit code.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/ui"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a launch failure or any other error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or input
	ExitUsageError = 2
	// ExitConfigError indicates a settings or commands file error
	ExitConfigError = 3
	// ExitNotFoundError indicates an unknown command name
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports bad flags or arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ConfigError reports a problem loading settings.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil || commands.IsExit(err) {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}

	switch commands.KindOf(err) {
	case commands.ErrNotFound:
		return ExitNotFoundError
	case commands.ErrInvalidArgument, commands.ErrUnknownCommand, commands.ErrNotSupported:
		return ExitUsageError
	case commands.ErrInitializationFailed, commands.ErrReloadFailed:
		return ExitConfigError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

var errorStyle = lipgloss.NewStyle().Foreground(ui.Rose).Bold(true)

// DisplayError writes err to w in a consistent format.
func DisplayError(w io.Writer, err error) {
	if err == nil || commands.IsExit(err) {
		return
	}

	msg := err.Error()
	if commands.KindOf(err) != nil {
		msg = ui.FormatError(err)
	}

	label := "[ERROR]"
	if ColorsEnabled() {
		label = errorStyle.Render(label)
	}
	fmt.Fprintf(w, "%s %s\n", label, msg)
}
