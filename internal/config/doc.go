// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for runbox.
//
// Two files are involved: the application settings in TOML and the command
// catalogue in YAML. Settings have sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: application settings (launcher, reload, log, ui)
//   - CommandEntry: one command from the catalogue
//   - Loader: source of command entries, called at startup and on reload
//   - CommandFile: Loader backed by a YAML file
//
// # Configuration Precedence
//
// Settings are loaded from (in order of precedence):
//   - Environment variables (RUNBOX_*)
//   - ~/.runbox/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entries, err := config.NewCommandFile(cfg.CommandsFile).Load(ctx)
package config
