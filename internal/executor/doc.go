// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executor resolves launcher input and starts processes.
//
// Input is tokenized with commands.SplitCommandLine. A head that is a URL
// (http, https, ftp) or an absolute path is launched directly; anything else
// is looked up in the registry and expanded to the command's target plus
// arguments in a fixed order:
//
//	target-embedded args, then the command's default Arguments, then the
//	arguments typed by the user
//
// Control aliases ("!reload" and friends) are refused with
// commands.ErrNotSupported. Launch failures surface as
// commands.ErrExecutionFailed wrapping the OS error.
//
// # Usage
//
//	exec := executor.New(registry, executor.NewShellLauncher("", logger))
//	if err := exec.Execute(ctx, `code "my project"`); err != nil {
//	    // inspect with errors.Is(err, commands.ErrNotFound) etc.
//	}
package executor
