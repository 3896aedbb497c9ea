// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Setup diagnostics for runbox.
//
// Command: doctor
// Short:   Check settings, the commands file and the launch environment
//
// Health Checks Performed:
//   1. Settings Valid    - The settings file parses and validates
//   2. Commands File     - The commands file loads
//   3. Command Targets   - Every entry has a launchable target
//   4. Opener Available  - xdg-open/open (or the configured opener) is on PATH
//   5. Log Writable      - The log destination can be opened
//
// Exit Codes:
//   0   No check failed (warnings allowed)
//   1   One or more checks failed

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/executor"
	"github.com/jeranaias/runbox/internal/logging"
	"github.com/jeranaias/runbox/internal/ui"
	"github.com/jeranaias/runbox/internal/util"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	doctorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ui.Cyan)
	checkPassStyle   = lipgloss.NewStyle().Foreground(ui.Emerald).Bold(true)
	checkWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}).Bold(true)
	checkFailStyle   = lipgloss.NewStyle().Foreground(ui.Rose).Bold(true)
	fixStyle         = lipgloss.NewStyle().Foreground(ui.TextMuted).Italic(true).PaddingLeft(2)
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates a problem that does not stop runbox from working.
	CheckWarn
	// CheckFail indicates runbox cannot work until the problem is fixed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the bracketed marker for the status, styled when color is
// enabled.
func (s CheckStatus) Symbol(color bool) string {
	var label string
	var style lipgloss.Style
	switch s {
	case CheckPass:
		label, style = "[OK]", checkPassStyle
	case CheckWarn:
		label, style = "[!!]", checkWarnStyle
	case CheckFail:
		label, style = "[FAIL]", checkFailStyle
	default:
		return "?"
	}
	if color {
		return style.Render(label)
	}
	return label
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix
}

// Render returns a formatted line for the check, with the fix on a second
// line when the check did not pass.
func (c *HealthCheck) Render(color bool) string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(color), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		fix := "-> " + c.Fix
		if color {
			fix = fixStyle.Render(fix)
		} else {
			fix = "  " + fix
		}
		result += "\n" + fix
	}
	return result
}

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

func (s *session) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag"},
		Short:   "Check settings, the commands file and the launch environment",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks := s.runAllChecks(cmd.Context())
			return reportChecks(cmd.OutOrStdout(), checks, ColorsEnabled())
		},
	}
}

// reportChecks prints the results and a summary. It returns an error when
// any check failed.
func reportChecks(w io.Writer, checks []*HealthCheck, color bool) error {
	passed, warned, failed := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	title := "runbox doctor"
	if color {
		title = doctorTitleStyle.Render(title)
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 41))
	for _, check := range checks {
		fmt.Fprintln(w, check.Render(color))
	}
	fmt.Fprintln(w, strings.Repeat("-", 41))

	summary := []string{fmt.Sprintf("%d passed", passed)}
	if warned > 0 {
		summary = append(summary, fmt.Sprintf("%d warning", warned))
	}
	if failed > 0 {
		summary = append(summary, fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprintln(w, strings.Join(summary, ", "))

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// runAllChecks stops after the settings check when settings cannot load.
func (s *session) runAllChecks(ctx context.Context) []*HealthCheck {
	cfg, settings := s.checkSettings()
	checks := []*HealthCheck{settings}
	if cfg == nil {
		return checks
	}

	entries, cmdsCheck := checkCommandsFile(ctx, cfg)
	checks = append(checks, cmdsCheck)
	if entries != nil {
		checks = append(checks, checkCommandTargets(entries))
	}
	return append(checks,
		checkOpener(cfg),
		checkLogWritable(cfg),
	)
}

func (s *session) checkSettings() (*config.Config, *HealthCheck) {
	check := &HealthCheck{Name: "Settings Valid"}

	cfg, err := s.loadConfig()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Settings invalid: %s", err)
		check.Fix = "Run: runbox init --force"
		return nil, check
	}

	check.Status = CheckPass
	check.Message = "Settings valid"
	if s.flags.configPath == "" {
		if path, err := config.ConfigPath(); err == nil && !util.FileExists(path) {
			check.Message = "Settings valid (using defaults)"
		}
	}
	return cfg, check
}

func checkCommandsFile(ctx context.Context, cfg *config.Config) ([]config.CommandEntry, *HealthCheck) {
	check := &HealthCheck{Name: "Commands File"}
	path := cfg.CommandsPath()

	entries, err := config.NewCommandFile(path).Load(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Commands file could not be loaded: %s", err)
		if !util.FileExists(path) {
			check.Fix = "Run: runbox init"
		}
		return nil, check
	}

	check.Message = fmt.Sprintf("%d commands in %s", len(entries), path)
	if len(entries) == 0 {
		check.Status = CheckWarn
		check.Fix = "Add entries under \"commands:\""
		return entries, check
	}
	check.Status = CheckPass
	return entries, check
}

func checkCommandTargets(entries []config.CommandEntry) *HealthCheck {
	check := &HealthCheck{Name: "Command Targets"}
	validator := executor.New(commands.NewRegistry(), nil)

	var bad []string
	for _, entry := range entries {
		cmd := commands.Command{
			Name:   strings.TrimSpace(entry.Name),
			Target: strings.TrimSpace(entry.Target),
		}
		if err := validator.Validate(cmd); err != nil {
			bad = append(bad, cmd.Name)
		}
	}

	if len(bad) > 0 {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("%d command(s) will not launch: %s", len(bad), strings.Join(bad, ", "))
		check.Fix = "Give each command a non-empty target or a valid control command"
		return check
	}
	check.Status = CheckPass
	check.Message = "All command targets valid"
	return check
}

func checkOpener(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Opener Available"}

	opener := executor.NewShellLauncher(cfg.Launcher.Opener, nil).OpenerCommand()
	if opener == "" {
		check.Status = CheckPass
		check.Message = "Using ShellExecute"
		return check
	}

	path, err := exec.LookPath(opener)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("%s not found; URLs and documents will not open", opener)
		check.Fix = "Install it or set launcher.opener in the settings file"
		return check
	}
	check.Status = CheckPass
	check.Message = "Opener: " + path
	return check
}

func checkLogWritable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Log Writable"}

	path := cfg.LogPath()
	if path == logging.Stderr {
		check.Status = CheckPass
		check.Message = "Logging to stderr"
		return check
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create log directory: %s", err)
		return check
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Log file not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions on %s or set log.file", filepath.Dir(path))
		return check
	}
	f.Close()

	check.Status = CheckPass
	check.Message = "Log file: " + path
	return check
}
