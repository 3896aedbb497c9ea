// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"net/url"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/runbox/internal/commands"
)

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is a fully resolved launch request.
type Invocation struct {
	// Input is the raw text the user typed.
	Input string

	// Command is the registered command name, empty for direct targets.
	Command string

	// Target is the executable, path or URL to open.
	Target string

	// Args are the final arguments in launch order.
	Args []string

	// Direct is true when Target came straight from the input (URL or
	// absolute path) without a registry lookup.
	Direct bool
}

// ArgLine returns Args joined into a single argument string, re-quoting
// arguments that contain whitespace.
func (inv Invocation) ArgLine() string {
	return commands.JoinArgs(inv.Args)
}

// IsURL reports whether Target carries a URL scheme.
func (inv Invocation) IsURL() bool {
	return hasURLScheme(inv.Target)
}

// URL returns Target with the query-escaped argument line appended, so
// "g golang generics" against https://www.google.com/search?q= opens
// https://www.google.com/search?q=golang+generics.
func (inv Invocation) URL() string {
	if len(inv.Args) == 0 {
		return inv.Target
	}
	return inv.Target + url.QueryEscape(inv.ArgLine())
}

// =============================================================================
// LAUNCHER
// =============================================================================

// Launcher starts a process for an invocation using shell-association
// semantics. It must return once the process has been started; it never waits
// for the process to exit.
type Launcher interface {
	Launch(ctx context.Context, inv Invocation) error
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, inv Invocation) error

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

// ShellLauncher launches through the operating system's default handlers:
// ShellExecute on Windows, the desktop opener (xdg-open or open) for URLs and
// documents elsewhere, and a detached exec for executables.
type ShellLauncher struct {
	// Opener overrides the document/URL opener on non-Windows systems.
	// Empty selects "open" on macOS and "xdg-open" otherwise.
	Opener string

	logger *zap.Logger
}

// NewShellLauncher creates a ShellLauncher. A nil logger disables logging.
func NewShellLauncher(opener string, logger *zap.Logger) *ShellLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellLauncher{Opener: opener, logger: logger}
}

var urlSchemes = []string{"http://", "https://", "ftp://", "file://"}

func hasURLScheme(target string) bool {
	lower := strings.ToLower(target)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return strings.HasPrefix(lower, "mailto:")
}

// OpenerCommand returns the program that opens documents and URLs. It is
// empty on Windows, where ShellExecute is used instead.
func (l *ShellLauncher) OpenerCommand() string {
	switch {
	case runtime.GOOS == "windows":
		return ""
	case l.Opener != "":
		return l.Opener
	case runtime.GOOS == "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}
