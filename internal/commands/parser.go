// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// ControlPrefix marks a control command token such as "!reload".
const ControlPrefix = "!"

// =============================================================================
// TOKENIZER
// =============================================================================

// SplitCommandLine splits a command line into tokens, respecting quotes.
// Whitespace separates tokens except inside single or double quotes. The
// quote characters are consumed. Inside quotes a backslash escapes a quote
// or another backslash; anywhere else it is a literal character so Windows
// paths survive unquoted.
func SplitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool
	// quoted tracks an explicit empty token like "" so it is not dropped
	quoted := false

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			quoted = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			quoted = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			quoted = false

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// SplitHead tokenizes input and returns the head token and the remaining
// arguments. ok is false when the input holds no token at all.
func SplitHead(input string) (head string, args []string, ok bool) {
	tokens := SplitCommandLine(input)
	if len(tokens) == 0 {
		return "", nil, false
	}
	return tokens[0], tokens[1:], true
}

// JoinArgs joins arguments into a single argument string. Arguments that are
// empty or contain whitespace or quotes are double-quoted so that
// SplitCommandLine(JoinArgs(args)) returns args again.
func JoinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = quoteArg(arg)
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsFunc(arg, needsQuote) {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuote(r rune) bool {
	return unicode.IsSpace(r) || r == '"' || r == '\''
}

// =============================================================================
// CONTROL COMMANDS
// =============================================================================

// Control identifies a built-in control command.
type Control int

const (
	ControlNone    Control = iota // Not a control token
	ControlReload                 // !reload
	ControlVersion                // !version
	ControlExit                   // !exit
	ControlUnknown                // Any other "!" token
)

// String returns the canonical token for the control command.
func (c Control) String() string {
	switch c {
	case ControlReload:
		return "!reload"
	case ControlVersion:
		return "!version"
	case ControlExit:
		return "!exit"
	case ControlUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// IsControlAlias reports whether token names a control command. The check is
// on the "!" prefix only; recognition happens in ParseControl.
func IsControlAlias(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), ControlPrefix)
}

// ParseControl classifies the head token of input. Matching is
// case-insensitive and ignores any trailing arguments.
func ParseControl(input string) Control {
	head, _, ok := SplitHead(input)
	if !ok || !strings.HasPrefix(head, ControlPrefix) {
		return ControlNone
	}
	switch strings.ToLower(head) {
	case "!reload":
		return ControlReload
	case "!version":
		return ControlVersion
	case "!exit":
		return ControlExit
	default:
		return ControlUnknown
	}
}
