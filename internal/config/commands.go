// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/runbox/internal/util"
)

// =============================================================================
// COMMAND CATALOGUE
// =============================================================================

// CommandEntry is one command as it appears in the commands file.
type CommandEntry struct {
	Name        string `yaml:"name"`
	Target      string `yaml:"target"`
	Description string `yaml:"description,omitempty"`
	Arguments   string `yaml:"arguments,omitempty"`
}

// commandsDocument is the top-level shape of the commands file.
type commandsDocument struct {
	Commands []CommandEntry `yaml:"commands"`
}

// Loader produces the current set of command entries. It is called once at
// startup and again for every reload.
type Loader interface {
	Load(ctx context.Context) ([]CommandEntry, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]CommandEntry, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) ([]CommandEntry, error) {
	return f(ctx)
}

// CommandFile loads entries from a YAML file on disk.
type CommandFile struct {
	Path string
}

// NewCommandFile returns a loader for path. "~/" and ${VAR} are expanded.
func NewCommandFile(path string) *CommandFile {
	return &CommandFile{Path: ExpandPath(path)}
}

// Load reads and parses the commands file. Environment references in the
// file are expanded before parsing; target paths starting with "~/" are
// expanded afterwards.
func (f *CommandFile) Load(ctx context.Context) ([]CommandEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read commands file: %w", err)
	}
	return ParseCommands(data)
}

// ParseCommands parses a commands document. Entries are returned in file
// order; duplicate handling is left to the registry.
func ParseCommands(data []byte) ([]CommandEntry, error) {
	expanded := os.ExpandEnv(string(data))

	var doc commandsDocument
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parse commands file: %w", err)
	}

	entries := make([]CommandEntry, 0, len(doc.Commands))
	for i, entry := range doc.Commands {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("command #%d: %w", i+1, ErrMissingName)
		}
		if strings.HasPrefix(entry.Target, "~") {
			entry.Target = ExpandPath(entry.Target)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ErrMissingName is returned for catalogue entries without a name.
var ErrMissingName = errors.New("missing name")

// =============================================================================
// SAMPLE CATALOGUE
// =============================================================================

// SampleCommands is written by "runbox init".
const SampleCommands = `# runbox commands
#
# Each entry maps a short name to something to launch. The target may be a
# program, a document, a folder or a URL. Arguments are appended after any
# arguments embedded in the target and before what you type.
#
# A target starting with "!" is an alias for a control command
# (!reload, !version, !exit).

commands:
  - name: g
    target: https://www.google.com
    description: Web search

  - name: docs
    target: ~/Documents
    description: Open the documents folder

  - name: home
    target: ${HOME}
    description: Open the home folder

  - name: rl
    target: "!reload"
    description: Reload the commands file
`

// WriteSampleCommands writes SampleCommands to path. An existing file is
// only replaced when force is set.
func WriteSampleCommands(path string, force bool) error {
	path = ExpandPath(path)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return util.AtomicWriteFile(path, []byte(SampleCommands), 0644)
}
