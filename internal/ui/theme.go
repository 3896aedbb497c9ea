// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// COLORS
// =============================================================================

var (
	Purple        = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Cyan          = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Emerald       = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose          = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styles used by the launcher box.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Box               lipgloss.Style
	Prompt            lipgloss.Style
	Candidate         lipgloss.Style
	CandidateSelected lipgloss.Style
	Description       lipgloss.Style
	Status            lipgloss.Style
	StatusError       lipgloss.Style
	Help              lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; auto asks the
// terminal for its background.
func NewTheme(mode string) *Theme {
	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.Prompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Candidate = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.CandidateSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Bold(true).
		PaddingLeft(2)

	t.Description = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Status = lipgloss.NewStyle().
		Foreground(Emerald)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)
}
