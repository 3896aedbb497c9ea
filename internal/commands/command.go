// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// Command is one resolvable launcher action.
type Command struct {
	// Name is the lookup key typed by the user. Unique case-insensitively.
	Name string

	// Target is a URL, a filesystem path, an executable name, or a "!" control
	// alias. It may embed arguments (e.g., "code --new-window").
	Target string

	// Description is shown in listings and completion. No semantic effect.
	Description string

	// Arguments are default arguments appended after the Target's own.
	Arguments string
}

// Validate checks the command can be registered.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewError(ErrInvalidArgument, "register", "", errEmptyName)
	}
	return nil
}

// IsControl reports whether the command's Target is a control alias.
func (c Command) IsControl() bool {
	return IsControlAlias(c.Target)
}

// Key returns the case-insensitive lookup key for a name. Two names refer to
// the same command exactly when their keys are equal.
func Key(name string) string {
	return fold(strings.TrimSpace(name))
}

type constError string

func (e constError) Error() string { return string(e) }

const errEmptyName constError = "command name is empty"
