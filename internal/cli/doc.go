// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the runbox command line.
//
// Running runbox with no subcommand opens the launcher box when attached to
// a terminal and falls back to the line prompt otherwise.
//
// # Commands
//
//	runbox                  Launcher box (or line prompt)
//	runbox prompt           Line prompt with history and tab completion
//	runbox run <input...>   Dispatch one input and exit
//	runbox list [--plain]   List registered commands
//	runbox complete [pfx]   Print completions for a prefix
//	runbox init [--force]   Write default settings and sample commands
//	runbox version          Print version information
//
// # Exit Codes
//
//   - 0: success, including !exit
//   - 1: launch failure or other error
//   - 2: usage error, unknown control command or empty input
//   - 3: settings or commands file error
//   - 7: unknown command name
package cli
