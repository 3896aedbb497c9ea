// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Error kinds shared by the registry, executor and orchestrator.
// Match them with errors.Is; never compare error strings.
var (
	// ErrInvalidArgument reports malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a command name missing from the registry.
	ErrNotFound = errors.New("command not found")

	// ErrNotSupported reports a control alias sent down the process launch path.
	ErrNotSupported = errors.New("not supported")

	// ErrExecutionFailed reports that the OS refused or failed to launch a target.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrInitializationFailed reports that the initial configuration load failed.
	ErrInitializationFailed = errors.New("initialization failed")

	// ErrReloadFailed reports that a configuration reload failed.
	ErrReloadFailed = errors.New("reload failed")

	// ErrUnknownCommand reports an unrecognized "!" control token.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidOperation reports a call made in the wrong lifecycle state.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrExitRequested is not a failure. It asks the caller to shut down cleanly
	// and must never be displayed as an error.
	ErrExitRequested = errors.New("application exit requested")
)

// kinds lists every kind in the order KindOf checks them.
var kinds = []error{
	ErrExitRequested,
	ErrInvalidArgument,
	ErrNotFound,
	ErrNotSupported,
	ErrExecutionFailed,
	ErrInitializationFailed,
	ErrReloadFailed,
	ErrUnknownCommand,
	ErrInvalidOperation,
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error carries an error kind together with the operation, the subject it
// concerns (a command name, target or token) and the underlying cause.
type Error struct {
	Kind    error  // One of the Err* kinds
	Op      string // Operation that failed (e.g., "execute", "reload")
	Subject string // Command, target or token involved
	Err     error  // Underlying cause (may be nil)
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Subject != "" {
		msg += fmt.Sprintf(" %q", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error.
func NewError(kind error, op, subject string, cause error) error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: cause}
}

// =============================================================================
// HELPERS
// =============================================================================

// KindOf returns the kind of the outermost *Error in err's chain, falling
// back to the first kind found anywhere in the chain. Returns nil if none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsExit reports whether err is the clean-shutdown signal.
func IsExit(err error) bool {
	return errors.Is(err, ErrExitRequested)
}

// SubjectOf returns the subject of the outermost *Error in err's chain.
func SubjectOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject
	}
	return ""
}
