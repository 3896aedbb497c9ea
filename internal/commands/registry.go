// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
	"sync"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry owns the authoritative list of registered commands and keeps its
// Completer in sync with the current name set.
//
// Mutations are serialized by a single lock and publish a new immutable
// snapshot, so readers never observe a half-applied change (for example a
// registry that was cleared but not yet repopulated during a reload).
type Registry struct {
	mu        sync.RWMutex
	commands  []Command      // insertion order, never mutated in place
	index     map[string]int // folded name -> position in commands
	completer *Completer
}

// NewRegistry creates an empty registry with its own completer.
func NewRegistry() *Registry {
	return &Registry{
		index:     make(map[string]int),
		completer: NewCompleter(),
	}
}

// Completer returns the completer owned by the registry.
func (r *Registry) Completer() *Completer {
	return r.completer
}

// Register inserts cmd, or replaces the command with the same
// case-insensitive name in place. The name is trimmed before storing.
func (r *Registry) Register(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	cmd.Name = strings.TrimSpace(cmd.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Command, len(r.commands), len(r.commands)+1)
	copy(next, r.commands)

	k := Key(cmd.Name)
	if pos, ok := r.index[k]; ok {
		next[pos] = cmd
	} else {
		r.index[k] = len(next)
		next = append(next, cmd)
	}
	r.publishLocked(next)
	return nil
}

// Remove deletes the command with the given case-insensitive name.
// Returns false if nothing was removed.
func (r *Registry) Remove(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[Key(name)]
	if !ok {
		return false
	}

	next := make([]Command, 0, len(r.commands)-1)
	next = append(next, r.commands[:pos]...)
	next = append(next, r.commands[pos+1:]...)
	r.rebuildIndexLocked(next)
	r.publishLocked(next)
	return true
}

// Clear removes every command and empties the completer's word list.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = make(map[string]int)
	r.publishLocked(nil)
}

// Replace swaps the whole command set for cmds in one step. Every command is
// validated first; on failure the registry is left untouched. Later
// duplicates replace earlier ones, as with Register.
func (r *Registry) Replace(cmds []Command) error {
	next := make([]Command, 0, len(cmds))
	index := make(map[string]int, len(cmds))
	for i, cmd := range cmds {
		if err := cmd.Validate(); err != nil {
			return fmt.Errorf("command #%d: %w", i+1, err)
		}
		cmd.Name = strings.TrimSpace(cmd.Name)
		k := Key(cmd.Name)
		if pos, ok := index[k]; ok {
			next[pos] = cmd
			continue
		}
		index[k] = len(next)
		next = append(next, cmd)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = index
	r.publishLocked(next)
	return nil
}

// Has reports whether a command with the given case-insensitive name exists.
func (r *Registry) Has(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[Key(name)]
	return ok
}

// Get retrieves a command by case-insensitive name.
func (r *Registry) Get(name string) (Command, bool) {
	if strings.TrimSpace(name) == "" {
		return Command{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.index[Key(name)]
	if !ok {
		return Command{}, false
	}
	return r.commands[pos], true
}

// All returns a snapshot of all commands in registration order. The slice is
// a copy; changing it does not affect the registry.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// publishLocked installs next as the current snapshot and resyncs the
// completer. Must be called with the write lock held.
func (r *Registry) publishLocked(next []Command) {
	r.commands = next
	r.completer.UpdateWordList(namesOf(next))
}

// rebuildIndexLocked recomputes positions after a removal.
func (r *Registry) rebuildIndexLocked(cmds []Command) {
	r.index = make(map[string]int, len(cmds))
	for i, cmd := range cmds {
		r.index[Key(cmd.Name)] = i
	}
}

func namesOf(cmds []Command) []string {
	names := make([]string, len(cmds))
	for i, cmd := range cmds {
		names[i] = cmd.Name
	}
	return names
}
