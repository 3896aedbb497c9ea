// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/runbox/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete runbox configuration.
type Config struct {
	// CommandsFile is the YAML command catalogue. "~/" is expanded.
	CommandsFile string `toml:"commands_file"`

	// Launcher controls the background task runner
	Launcher LauncherConfig `toml:"launcher"`

	// Reload controls configuration reload behavior
	Reload ReloadConfig `toml:"reload"`

	// Log controls structured logging
	Log LogConfig `toml:"log"`

	// UI controls the interactive front ends
	UI UIConfig `toml:"ui"`
}

// LauncherConfig contains background execution settings.
type LauncherConfig struct {
	// Workers is the number of tasks that may run at once
	Workers int `toml:"workers"`
	// TaskTimeoutSecs bounds each task (0 = no timeout)
	TaskTimeoutSecs int `toml:"task_timeout_secs"`
	// MaxQueued bounds tasks waiting for a worker (0 = unlimited)
	MaxQueued int `toml:"max_queued"`
	// Opener overrides xdg-open/open on non-Windows systems
	Opener string `toml:"opener"`
}

// ReloadConfig contains reload and file watching settings.
type ReloadConfig struct {
	// Watch reloads automatically when the commands file changes
	Watch bool `toml:"watch"`
	// DebounceMs waits for a burst of file events to settle
	DebounceMs int `toml:"debounce_ms"`
	// MinIntervalMs is the minimum gap between automatic reloads
	MinIntervalMs int `toml:"min_interval_ms"`
	// KeepOnFailure keeps the previous commands when a reload fails.
	// When false the registry is left empty after a failed reload.
	KeepOnFailure bool `toml:"keep_on_failure"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File is the log destination; empty means ~/.runbox/runbox.log and
	// "stderr" logs to standard error
	File string `toml:"file"`
}

// UIConfig contains UI settings.
type UIConfig struct {
	// Theme is one of auto, dark, light
	Theme string `toml:"theme"`
	// MaxCandidates limits the completion list
	MaxCandidates int `toml:"max_candidates"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		CommandsFile: "~/.runbox/commands.yaml",
		Launcher: LauncherConfig{
			Workers:         2,
			TaskTimeoutSecs: 0,
			MaxQueued:       16,
		},
		Reload: ReloadConfig{
			Watch:         true,
			DebounceMs:    250,
			MinIntervalMs: 1000,
			KeepOnFailure: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:         "auto",
			MaxCandidates: 8,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the runbox configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".runbox"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands a leading "~/" to the user's home directory and
// ${VAR} references from the environment.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// CommandsPath returns the expanded commands file path.
func (c *Config) CommandsPath() string {
	return ExpandPath(c.CommandsFile)
}

// LogPath returns the expanded log file path, "stderr", or the default
// location under ConfigDir.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		if c.Log.File == "stderr" {
			return c.Log.File
		}
		return ExpandPath(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "stderr"
	}
	return filepath.Join(dir, "runbox.log")
}

// Debounce returns the reload debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Reload.DebounceMs) * time.Millisecond
}

// MinReloadInterval returns the minimum gap between automatic reloads.
func (c *Config) MinReloadInterval() time.Duration {
	return time.Duration(c.Reload.MinIntervalMs) * time.Millisecond
}

// TaskTimeout returns the per-task timeout (0 = none).
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Launcher.TaskTimeoutSecs) * time.Second
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.runbox/config.toml, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to path as TOML.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# runbox configuration file\n")
	buf.WriteString("# Generated by runbox - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.CommandsFile) == "" {
		errs = append(errs, ValidationError{
			Field:   "commands_file",
			Message: "must not be empty",
		})
	}

	if c.Launcher.Workers < 1 || c.Launcher.Workers > 64 {
		errs = append(errs, ValidationError{
			Field:   "launcher.workers",
			Message: fmt.Sprintf("must be 1-64, got %d", c.Launcher.Workers),
		})
	}
	if c.Launcher.TaskTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "launcher.task_timeout_secs",
			Message: "must be non-negative",
		})
	}
	if c.Launcher.MaxQueued < 0 {
		errs = append(errs, ValidationError{
			Field:   "launcher.max_queued",
			Message: "must be non-negative",
		})
	}

	if c.Reload.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "reload.debounce_ms",
			Message: "must be non-negative",
		})
	}
	if c.Reload.MinIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "reload.min_interval_ms",
			Message: "must be non-negative",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.MaxCandidates < 1 {
		errs = append(errs, ValidationError{
			Field:   "ui.max_candidates",
			Message: fmt.Sprintf("must be at least 1, got %d", c.UI.MaxCandidates),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields that
// have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.CommandsFile == "" {
		c.CommandsFile = defaults.CommandsFile
	}
	if c.Launcher.Workers == 0 {
		c.Launcher.Workers = defaults.Launcher.Workers
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.MaxCandidates == 0 {
		c.UI.MaxCandidates = defaults.UI.MaxCandidates
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RUNBOX_COMMANDS_FILE: overrides commands_file
//   - RUNBOX_LOG_LEVEL: overrides log.level
//   - RUNBOX_LOG_FILE: overrides log.file
//   - RUNBOX_NO_WATCH: set to "1" or "true" to disable reload.watch
func (c *Config) ApplyEnvOverrides() {
	if path := os.Getenv("RUNBOX_COMMANDS_FILE"); path != "" {
		c.CommandsFile = path
	}
	if level := os.Getenv("RUNBOX_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if file := os.Getenv("RUNBOX_LOG_FILE"); file != "" {
		c.Log.File = file
	}
	if noWatch := os.Getenv("RUNBOX_NO_WATCH"); noWatch != "" {
		if noWatch == "1" || strings.ToLower(noWatch) == "true" {
			c.Reload.Watch = false
		}
	}
}
