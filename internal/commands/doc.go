// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command model of the launcher.
//
// It owns the registry of named commands, the prefix completer that mirrors
// the registry's names, the quote-aware tokenizer shared by every layer, the
// control command classification and the error kinds of the whole pipeline.
//
// # Key Types
//
//   - Command: A named action (URL, path, executable or control alias)
//   - Registry: Case-insensitive command store with snapshot reads
//   - Completer: Prefix candidates and longest-common-prefix completion
//   - Control: Tagged variant for !reload, !version and !exit
//   - Error: Error kind plus operation, subject and cause
//
// # Usage
//
// Register commands and complete a prefix:
//
//	reg := commands.NewRegistry()
//	_ = reg.Register(commands.Command{Name: "google", Target: "https://google.com"})
//	_ = reg.Register(commands.Command{Name: "gmail", Target: "https://mail.google.com"})
//
//	reg.Completer().Candidates("g") // ["gmail", "google"]
//	reg.Completer().Complete("g")   // "g"
//	reg.Completer().Complete("go")  // "google"
//
// Tokenize input:
//
//	commands.SplitCommandLine(`code "my project" -n`) // ["code", "my project", "-n"]
package commands
