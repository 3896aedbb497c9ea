// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides file and string helpers shared by runbox packages.
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - FileExists: Existence check that treats stat errors as absent
//
// String Utilities:
//   - TruncateWidth: Display-width truncation with an ellipsis
//
// # Usage
//
//	// Write the settings file atomically
//	err := util.AtomicWriteFile(path, data, 0644)
//
//	// Fit a target into a column
//	cell := util.TruncateWidth(target, 48)
package util
