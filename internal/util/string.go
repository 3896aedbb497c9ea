// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "github.com/mattn/go-runewidth"

// Ellipsis marks truncated text.
const Ellipsis = "..."

// TruncateWidth truncates s to at most maxWidth terminal columns. Wide
// characters count as two columns. When s is cut and there is room, the
// result ends with Ellipsis.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}
