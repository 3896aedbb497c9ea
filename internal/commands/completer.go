// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer computes prefix completions over a set of known command names.
// Matching is case-insensitive. The word list is a derived view owned by a
// Registry; UpdateWordList replaces it wholesale.
type Completer struct {
	mu    sync.RWMutex
	words []entry // sorted by folded form, ties by original casing
}

type entry struct {
	word   string
	folded string
}

// NewCompleter creates a completer with an empty word list.
func NewCompleter() *Completer {
	return &Completer{}
}

// UpdateWordList replaces the entire known-word set. Duplicates collapse.
func (c *Completer) UpdateWordList(words []string) {
	seen := make(map[string]struct{}, len(words))
	entries := make([]entry, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		entries = append(entries, entry{word: w, folded: fold(w)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].folded != entries[j].folded {
			return entries[i].folded < entries[j].folded
		}
		return entries[i].word < entries[j].word
	})

	c.mu.Lock()
	c.words = entries
	c.mu.Unlock()
}

// Len returns the number of known words.
func (c *Completer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}

// Candidates returns every known word that starts with prefix, compared
// case-insensitively. An empty prefix returns all words. No match returns an
// empty slice.
func (c *Completer) Candidates(prefix string) []string {
	p := fold(prefix)

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, 0)
	for _, e := range c.words {
		if strings.HasPrefix(e.folded, p) {
			result = append(result, e.word)
		}
	}
	return result
}

// Complete returns the longest common prefix of all candidates for prefix.
// A single candidate is returned verbatim. With no candidates, prefix is
// returned unchanged.
func (c *Completer) Complete(prefix string) string {
	candidates := c.Candidates(prefix)
	switch len(candidates) {
	case 0:
		return prefix
	case 1:
		return candidates[0]
	}

	common := []rune(candidates[0])
	for _, cand := range candidates[1:] {
		common = commonPrefix(common, []rune(cand))
		if len(common) == 0 {
			break
		}
	}

	// Folding may shorten the shared prefix below what was typed.
	if len([]rune(prefix)) > len(common) {
		return prefix
	}
	return string(common)
}

// commonPrefix returns the longest case-insensitive common prefix of a and b,
// in a's casing.
func commonPrefix(a, b []rune) []rune {
	n := min(len(a), len(b))
	i := 0
	for i < n && equalFoldRune(a[i], b[i]) {
		i++
	}
	return a[:i]
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	// SimpleFold walks the orbit of equivalent runes.
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// fold returns the case-folded form of s used for all name comparisons.
// A Caser is stateful, so a fresh one is used per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
