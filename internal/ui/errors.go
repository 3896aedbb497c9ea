// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"

	"github.com/jeranaias/runbox/internal/commands"
)

// FormatError turns a dispatch error into a one-line message for the user.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	subject := commands.SubjectOf(err)

	switch commands.KindOf(err) {
	case commands.ErrNotFound:
		return fmt.Sprintf("Unknown command %q", subject)
	case commands.ErrUnknownCommand:
		return fmt.Sprintf("Unknown control command %q (try !reload, !version, !exit)", subject)
	case commands.ErrInvalidArgument:
		if subject == "" {
			return "Nothing to run"
		}
		return fmt.Sprintf("Invalid input %q: %s", subject, rootCause(err))
	case commands.ErrNotSupported:
		return fmt.Sprintf("%s cannot be launched", subject)
	case commands.ErrExecutionFailed:
		return fmt.Sprintf("Could not launch %s: %s", subject, rootCause(err))
	case commands.ErrReloadFailed:
		return "Reload failed: " + rootCause(err)
	case commands.ErrInitializationFailed:
		return "Could not load commands: " + rootCause(err)
	case commands.ErrInvalidOperation:
		return "Not ready: " + rootCause(err)
	default:
		return err.Error()
	}
}

// rootCause returns the text of the innermost cause carried by a
// *commands.Error chain.
func rootCause(err error) string {
	for {
		var e *commands.Error
		if !errors.As(err, &e) || e.Err == nil {
			break
		}
		err = e.Err
	}
	var e *commands.Error
	if errors.As(err, &e) {
		return e.Kind.Error()
	}
	return err.Error()
}
