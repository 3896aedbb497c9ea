// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator ties the registry, the executor and a configuration
// source together.
//
// It owns the lifecycle (Initialize, then any number of Reloads) and the
// built-in control commands:
//
//	!reload   re-read the commands source
//	!version  report build information
//	!exit     return commands.ErrExitRequested
//
// Dispatch is the entry point front ends call with raw input.
package orchestrator
